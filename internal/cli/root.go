// Package cli implements the reviewdeck command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/five82/reviewdeck/internal/app"
	"github.com/five82/reviewdeck/internal/config"
	"github.com/five82/reviewdeck/internal/logger"
	"github.com/five82/reviewdeck/internal/reviews"
)

// NewRootCmd builds the reviewdeck command tree. Running it without a
// subcommand opens the dashboard.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reviewdeck",
		Short:         "Pending-changes review dashboard",
		Long:          "A terminal dashboard and CLI for wiki pages with unreviewed pending revisions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	root.PersistentFlags().String("config", "", "Config file (default ~/.config/reviewdeck/config.toml)")
	root.PersistentFlags().String("api", "", "Backend base URL (overrides api_base)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newTUICmd(),
		newWikisCmd(),
		newPendingCmd(),
		newRefreshCmd(),
		newClearCmd(),
		newConfigureCmd(),
		newAutoreviewCmd(),
		newPrefsCmd(),
		newStubCmd(),
	)
	return root
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"api":       "api_base",
	"log-level": "log.level",
}

// bindFlags binds the flags the user actually set, so unset flags never
// shadow the file or the environment.
func bindFlags(cmd *cobra.Command) config.Binder {
	return func(v *viper.Viper) error {
		for name, key := range flagKeys {
			f := cmd.Flags().Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
		return nil
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, bindFlags(cmd))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// consoleLogger logs human-readable lines to stderr for one-shot commands.
func consoleLogger(cmd *cobra.Command, cfg config.Config) logger.Logger {
	return logger.New(logger.Config{Level: cfg.Log.Level, Format: "console"}, cmd.ErrOrStderr())
}

// openApp loads configuration and wires the application for a one-shot
// command. Callers must Close the returned App.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, consoleLogger(cmd, cfg))
}

// resolveWiki maps a --wiki value (id or language code) to a configured
// wiki, falling back to the persisted selection when raw is empty.
func resolveWiki(a *app.App, raw string) (reviews.WikiID, error) {
	snap := a.Store.Snapshot()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if snap.SelectedWikiID.IsZero() {
			return "", errors.New("no wiki selected; pass --wiki")
		}
		return snap.SelectedWikiID, nil
	}
	want := reviews.WikiID(raw)
	for _, w := range snap.Wikis {
		if w.ID.Matches(want) || (w.Code != "" && strings.EqualFold(w.Code, raw)) {
			return w.ID, nil
		}
	}
	return "", fmt.Errorf("unknown wiki %q", raw)
}

// focus selects id for this process only. Unlike Engine.SelectWiki it does
// not persist the choice or start a sync.
func focus(a *app.App, id reviews.WikiID) {
	if !a.Store.SelectedWikiID().Matches(id) {
		a.Store.Select(id)
	}
	a.Engine.SyncForms()
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
