package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/reviews"
)

func newConfigureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Replace a wiki's blocking categories and auto-approved groups",
		Long: "Reads one entry per line from FILE, or stdin for \"-\". Blank lines are ignored " +
			"and entries are trimmed. A list that is not given keeps its current value.",
		Args: cobra.NoArgs,
		RunE: runConfigure,
	}
	cmd.Flags().StringP("wiki", "w", "", "Wiki id or code (default: selected wiki)")
	cmd.Flags().String("blocking", "", "Blocking categories file, or - for stdin")
	cmd.Flags().String("groups", "", "Auto-approved groups file, or - for stdin")
	return cmd
}

func runConfigure(cmd *cobra.Command, args []string) error {
	wikiFlag, _ := cmd.Flags().GetString("wiki")
	blockingPath, _ := cmd.Flags().GetString("blocking")
	groupsPath, _ := cmd.Flags().GetString("groups")

	if blockingPath == "" && groupsPath == "" {
		return errors.New("nothing to configure; pass --blocking and/or --groups")
	}
	if blockingPath == "-" && groupsPath == "-" {
		return errors.New("only one of --blocking and --groups can read stdin")
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

	current := a.Store.Snapshot().Forms
	blocking, groups := current.BlockingCategories, current.AutoApprovedGroups
	if blockingPath != "" {
		if blocking, err = readList(cmd.InOrStdin(), blockingPath); err != nil {
			return err
		}
	}
	if groupsPath != "" {
		if groups, err = readList(cmd.InOrStdin(), groupsPath); err != nil {
			return err
		}
	}

	if err := a.Engine.SaveConfiguration(cmd.Context(), id, blocking, groups); err != nil {
		return err
	}

	wiki, _ := a.Store.Snapshot().CurrentWiki()
	return writeJSON(cmd.OutOrStdout(), struct {
		Wiki          reviews.WikiID        `json:"wiki"`
		Configuration reviews.Configuration `json:"configuration"`
	}{id, wiki.Configuration})
}

func readList(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
