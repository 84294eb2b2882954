package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/reviews"
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask the backend to re-read pending changes from the wiki, then sync",
		Args:  cobra.NoArgs,
		RunE:  runRefresh,
	}
	cmd.Flags().StringP("wiki", "w", "", "Wiki id or code (default: selected wiki)")
	return cmd
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Purge the backend cache of a wiki",
		Args:  cobra.NoArgs,
		RunE:  runClear,
	}
	cmd.Flags().StringP("wiki", "w", "", "Wiki id or code (default: selected wiki)")
	return cmd
}

func runRefresh(cmd *cobra.Command, args []string) error {
	wikiFlag, _ := cmd.Flags().GetString("wiki")

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
	if err := a.Engine.Refresh(cmd.Context(), id); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), struct {
		Wiki    reviews.WikiID `json:"wiki"`
		Pending int            `json:"pending"`
	}{id, len(a.Store.Snapshot().Pages)})
}

func runClear(cmd *cobra.Command, args []string) error {
	wikiFlag, _ := cmd.Flags().GetString("wiki")

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
	if err := a.Engine.ClearCache(cmd.Context(), id); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), struct {
		Wiki    reviews.WikiID `json:"wiki"`
		Cleared bool           `json:"cleared"`
	}{id, true})
}
