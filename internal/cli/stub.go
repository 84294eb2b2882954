package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/bootstrap"
	"github.com/five82/reviewdeck/internal/stubserver"
)

func newStubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run an in-memory backend seeded with demo pages",
		Args:  cobra.NoArgs,
		RunE:  runStub,
	}
	cmd.Flags().String("addr", ":8000", "Listen address")
	cmd.Flags().Duration("latency", 0, "Delay added to every response")
	cmd.Flags().Bool("empty", false, "Start without demo pages")
	return cmd
}

func runStub(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	latency, _ := cmd.Flags().GetDuration("latency")
	empty, _ := cmd.Flags().GetBool("empty")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	wikis, err := bootstrap.Load(cfg.WikisFile)
	if err != nil {
		return fmt.Errorf("load wikis: %w", err)
	}

	srv := stubserver.New(consoleLogger(cmd, cfg), wikis...)
	if !empty {
		srv.SeedDemo(time.Now())
	}
	srv.SetLatency(latency)
	return srv.ListenAndServe(cmd.Context(), addr)
}
