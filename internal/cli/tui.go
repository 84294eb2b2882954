package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/app"
	"github.com/five82/reviewdeck/internal/logger"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the dashboard (default)",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The terminal belongs to the dashboard; logs go to the configured file.
	log, logCloser, err := logger.Open(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("dashboard starting")
	return app.Run(cmd.Context(), a)
}
