package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/app"
)

func newAutoreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoreview",
		Short: "Run the backend's dry-run autoreview checks for a pending page",
		Args:  cobra.NoArgs,
		RunE:  runAutoreview,
	}
	cmd.Flags().StringP("wiki", "w", "", "Wiki id or code (default: selected wiki)")
	cmd.Flags().Int64P("page", "p", 0, "Page id (required)")
	_ = cmd.MarkFlagRequired("page")
	return cmd
}

func runAutoreview(cmd *cobra.Command, args []string) error {
	wikiFlag, _ := cmd.Flags().GetString("wiki")
	pageID, _ := cmd.Flags().GetInt64("page")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveWiki(a, wikiFlag)
	if err != nil {
		return err
	}
	focus(a, id)
	if err := a.Engine.Sync(cmd.Context(), id); err != nil {
		return err
	}

	res, err := a.Engine.Autoreview(cmd.Context(), pageID)
	if errors.Is(err, app.ErrNoPage) {
		return fmt.Errorf("page %d has no pending changes on wiki %s", pageID, id)
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}
