package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/output"
	"github.com/ritchy/BytePass/internal/client/storage"
)

// NewJournalCommand creates the journal command
func NewJournalCommand(getCfg func() *config.Config) *cobra.Command {
	var (
		limit   int
		lastRun bool
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent reconciliation decisions",
		Long:  "Display what sync decided for each record, newest first. Use --last-run for the last sync pass summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			ctx := commandContext(cmd)

			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			journal, err := storage.NewSQLiteJournal(cfg.JournalPath())
			if err != nil {
				return fmt.Errorf("failed to open sync journal: %w", err)
			}
			defer journal.Close()

			var out string
			if lastRun {
				run, err := journal.LastRun(ctx)
				if errors.Is(err, storage.ErrRunNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "No sync has run yet")
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read last run: %w", err)
				}
				out, err = output.FormatRun(run, cfg.Format)
				if err != nil {
					return err
				}
			} else {
				entries, err := journal.RecentDecisions(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to read decisions: %w", err)
				}
				out, err = output.FormatDecisions(entries, cfg.Format)
				if err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of decisions to show")
	cmd.Flags().BoolVar(&lastRun, "last-run", false, "Show the last sync pass instead of decisions")

	return cmd
}
