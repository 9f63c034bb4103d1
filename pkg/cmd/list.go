package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	profiles, err := store.List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles yet. Create one with: livetunnel configure <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHOST\tREMOTE\tLOCAL\tDIR\tUSERS\tUPLOAD")
	for _, p := range profiles {
		dir := p.Dir
		if dir == "" {
			dir = "(cwd)"
		}
		upload := ""
		if p.Upload {
			upload = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\t%s\n",
			p.Name, p.Host, p.RemotePort, p.LocalPort, dir, len(p.Users), upload)
	}
	return w.Flush()
}
