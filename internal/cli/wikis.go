package cli

import (
	"github.com/spf13/cobra"
)

func newWikisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikis",
		Short: "List configured wikis",
		Args:  cobra.NoArgs,
		RunE:  runWikis,
	}
	cmd.Flags().Bool("remote", false, "List the wikis known to the backend instead")
	return cmd
}

func runWikis(cmd *cobra.Command, args []string) error {
	remote, _ := cmd.Flags().GetBool("remote")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if !remote {
		return writeJSON(cmd.OutOrStdout(), a.Store.Snapshot().Wikis)
	}
	wikis, err := a.Engine.LoadRemoteWikis(cmd.Context())
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), wikis)
}
