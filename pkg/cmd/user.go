package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"livetunnel/pkg/config"
	"livetunnel/pkg/serve"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage a profile's basic-auth users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <profile>",
	Short: "Add a basic-auth user to a profile",
	Long: `Prompt for a username and password and store the user on the profile.
Only a SHA-512 digest of the password is kept; it is handed to miniserve
as a hashed basic-auth credential when the profile runs with --secure.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list <profile>",
	Short: "List a profile's basic-auth usernames",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserList,
}

func init() {
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
}

// readPassword prompts twice without echo and requires a match.
func readPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(first) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}

	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	profile, err := store.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Print("Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	for _, u := range profile.Users {
		if u.Name == username {
			return fmt.Errorf("profile %q already has a user %q", profile.Name, username)
		}
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	profile.Users = append(profile.Users, config.AuthUser{
		Name:         username,
		PasswordHash: serve.HashPassword(password),
	})
	if err := store.Save(profile); err != nil {
		return err
	}
	fmt.Printf("Added user %q to profile %q\n", username, profile.Name)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	profile, err := store.Get(args[0])
	if err != nil {
		return err
	}
	if len(profile.Users) == 0 {
		fmt.Printf("Profile %q has no auth users.\n", profile.Name)
		return nil
	}
	for _, u := range profile.Users {
		fmt.Println(u.Name)
	}
	return nil
}
