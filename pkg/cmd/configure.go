package cmd

import (
	"errors"
	"fmt"

	"livetunnel/pkg/config"
	"livetunnel/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure <name>",
	Short: "Create or edit a profile with the setup assistant",
	Long: `Run the interactive setup assistant for the named profile.
An existing profile is loaded into the form; saving replaces it.
Auth users are managed separately with "livetunnel user add".`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var existing *config.Profile
	switch p, err := store.Get(name); {
	case err == nil:
		existing = &p
	case errors.Is(err, config.ErrProfileNotFound):
		// First-time setup for this name.
	default:
		return err
	}

	form := ui.NewConfigureForm(existing, name)
	model, err := tea.NewProgram(form).Run()
	if err != nil {
		return fmt.Errorf("setup assistant failed: %w", err)
	}

	final := model.(*ui.ConfigureForm)
	if final.Canceled() {
		fmt.Println("Configuration cancelled, nothing saved.")
		return nil
	}
	profile, ok := final.Result()
	if !ok {
		return nil
	}

	if err := store.Save(profile); err != nil {
		return err
	}
	fmt.Printf("%s Saved profile %q\n", ui.MarkOK, profile.Name)
	return nil
}
