package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/order"
	"github.com/five82/reviewdeck/internal/prefs"
	"github.com/five82/reviewdeck/internal/ui"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show stored preferences",
		Args:  cobra.NoArgs,
		RunE:  runPrefsShow,
	}

	setSort := &cobra.Command{
		Use:   "set-sort ORDER",
		Short: "Store the sort order (newest, oldest or random)",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrefsSetSort,
	}
	setTheme := &cobra.Command{
		Use:   "set-theme NAME",
		Short: "Store the dashboard theme",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrefsSetTheme,
	}

	cmd.AddCommand(setSort, setTheme)
	return cmd
}

// openPrefs opens only the preference backend.
func openPrefs(cmd *cobra.Command) (*prefs.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	p, closer, err := prefs.Open(cfg.Prefs.Backend, cfg.Prefs.Path, consoleLogger(cmd, cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("open prefs: %w", err)
	}
	return p, func() { _ = closer.Close() }, nil
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	p, done, err := openPrefs(cmd)
	if err != nil {
		return err
	}
	defer done()
	return writeJSON(cmd.OutOrStdout(), p.Values())
}

func runPrefsSetSort(cmd *cobra.Command, args []string) error {
	if !order.Valid(args[0]) {
		return fmt.Errorf("invalid sort order %q (want newest, oldest or random)", args[0])
	}
	p, done, err := openPrefs(cmd)
	if err != nil {
		return err
	}
	defer done()

	p.SaveSortOrder(order.Parse(args[0]))
	return writeJSON(cmd.OutOrStdout(), p.Values())
}

func runPrefsSetTheme(cmd *cobra.Command, args []string) error {
	if !slices.Contains(ui.ThemeNames(), args[0]) {
		return fmt.Errorf("unknown theme %q (want one of %v)", args[0], ui.ThemeNames())
	}
	p, done, err := openPrefs(cmd)
	if err != nil {
		return err
	}
	defer done()

	p.SaveTheme(args[0])
	return writeJSON(cmd.OutOrStdout(), p.Values())
}
