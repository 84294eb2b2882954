package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/reviews"
)

type pendingOutput struct {
	Wiki    reviews.WikiID `json:"wiki"`
	Sort    order.Order    `json:"sort"`
	Pages   []reviews.Page `json:"pages"`
	HasMore bool           `json:"has_more"`
	Hidden  int            `json:"hidden"`
}

func newPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Sync once and print the visible pending pages",
		Args:  cobra.NoArgs,
		RunE:  runPending,
	}
	cmd.Flags().StringP("wiki", "w", "", "Wiki id or code (default: selected wiki)")
	cmd.Flags().StringP("sort", "s", "", "Sort order: newest, oldest or random (default: saved order)")
	cmd.Flags().IntP("limit", "n", 0, "Maximum pages to show (default: display_limit)")
	return cmd
}

func runPending(cmd *cobra.Command, args []string) error {
	wikiFlag, _ := cmd.Flags().GetString("wiki")
	sortFlag, _ := cmd.Flags().GetString("sort")
	limit, _ := cmd.Flags().GetInt("limit")

	if sortFlag != "" && !order.Valid(sortFlag) {
		return fmt.Errorf("invalid --sort %q (want newest, oldest or random)", sortFlag)
	}

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
	if sortFlag != "" {
		a.Store.SetSortOrder(order.Parse(sortFlag))
	}
	if limit <= 0 {
		limit = a.Config.DisplayLimit
	}

	if err := a.Engine.Sync(cmd.Context(), id); err != nil {
		return err
	}

	snap := a.Store.Snapshot()
	view := snap.Project(limit)
	pages := view.VisiblePages
	if pages == nil {
		pages = []reviews.Page{}
	}
	return writeJSON(cmd.OutOrStdout(), pendingOutput{
		Wiki:    id,
		Sort:    snap.SortOrder,
		Pages:   pages,
		HasMore: view.HasMorePages,
		Hidden:  view.HiddenPages,
	})
}
