package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"livetunnel/pkg/config"
	"livetunnel/pkg/serve"
	"livetunnel/pkg/session"
	"livetunnel/pkg/tunnel"
	"livetunnel/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	upSecure bool
	upDir    string
	upNoTUI  bool
)

var upCmd = &cobra.Command{
	Use:   "up <name>",
	Short: "Start the tunnel and file server for a profile",
	Long: `Run the named profile: execute its connect-commands, establish the SSH
remote port-forward, start miniserve on the forwarded port, and keep both
alive until one of them dies or you stop the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runUp,
}

func init() {
	upCmd.Flags().BoolVarP(&upSecure, "secure", "s", false, "Require basic-auth (profile must have users)")
	upCmd.Flags().StringVarP(&upDir, "dir", "d", "", "Serve this directory instead of the profile's")
	upCmd.Flags().BoolVar(&upNoTUI, "no-tui", false, "Plain line output instead of the live view")
	rootCmd.AddCommand(upCmd)
}

// resolveDir picks the serve directory: flag, then profile, then cwd.
func resolveDir(p config.Profile) (string, error) {
	if upDir != "" {
		return upDir, nil
	}
	if p.Dir != "" {
		return p.Dir, nil
	}
	return os.Getwd()
}

func runUp(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	profile, err := store.Get(args[0])
	store.Close()
	if err != nil {
		return err
	}

	dir, err := resolveDir(profile)
	if err != nil {
		return err
	}
	// Reject a stale directory before any child is spawned.
	if err := config.CheckServeDir(dir); err != nil {
		return err
	}
	if upSecure && len(profile.Users) == 0 {
		return fmt.Errorf("profile %q has no auth users; add one with: livetunnel user add %s", profile.Name, profile.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if upNoTUI {
		return runPlain(ctx, profile, dir)
	}

	model := ui.NewRunModel(ctx, profile, dir, upSecure)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("live view failed: %w", err)
	}
	return model.Err()
}

// runPlain is the --no-tui path: same lifecycle, line output.
func runPlain(ctx context.Context, profile config.Profile, dir string) error {
	fmt.Printf("Connecting to %s…\n", profile.Host)
	tunnelH, err := tunnel.Establish(ctx, profile)
	if err != nil {
		return err
	}
	fmt.Printf("%s Tunnel up: %s:%d → 127.0.0.1:%d\n", ui.MarkOK, profile.Host, profile.RemotePort, profile.LocalPort)

	serveH, err := serve.Start(ctx, profile, dir, upSecure)
	if err != nil {
		_ = tunnelH.Stop()
		return err
	}
	fmt.Printf("%s Serving %s on 127.0.0.1:%d\n", ui.MarkOK, dir, profile.LocalPort)
	fmt.Println("Press ctrl+c to stop")

	if err := session.Run(ctx, tunnelH, serveH); err != nil {
		return err
	}
	fmt.Printf("%s Session closed\n", ui.MarkOK)
	return nil
}
