package cmd

import (
	"fmt"
	"os"

	"livetunnel/pkg/config"
	"livetunnel/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"

	storeBackend string
	configDir    string
)

var rootCmd = &cobra.Command{
	Use:     "livetunnel",
	Short:   "Tunnel your local files to your own webserver",
	Version: Version,
	Long: `livetunnel serves a local directory through an SSH remote port-forward
to your own server, where a reverse proxy exposes it to the web.

It remembers named profiles (host, ports, auth users, connect-commands for
port-knocking) and glues together the system ssh client and miniserve.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configDir == "" {
			dir, err := config.DefaultDir()
			if err != nil {
				return err
			}
			configDir = dir
		}
		return logging.Init(configDir)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", config.BackendSQLite, "Profile store backend (sqlite or yaml)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default ~/.livetunnel)")
}

// openStore opens the profile store selected by the persistent flags.
func openStore() (config.Store, error) {
	store, err := config.NewStore(storeBackend, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	return store, nil
}
