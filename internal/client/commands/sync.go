package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/output"
	"github.com/ritchy/BytePass/internal/client/session"
	"github.com/ritchy/BytePass/internal/client/storage"
	"github.com/ritchy/BytePass/internal/client/sync"
)

// NewSyncCommand creates the sync command
func NewSyncCommand(getCfg func() *config.Config, getSess func() *session.Session, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize accounts with the remote store",
		Long: `Synchronize local accounts with the remote store by:
  1. Pulling the remote accounts file (a missing file counts as empty)
  2. Reconciling it record by record; the newer last_updated wins
  3. Pushing the merged collection when the remote is behind or missing

A failed pull leaves local data untouched. A failed push keeps the
reconciled local data; run sync again to retry.

Use --status to check sync status without performing a sync.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			sess := getSess()

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				if statusOnly {
					return printSyncStatus(cmd, ctx, cfg, files)
				}

				if err := requireAuth(ctx, authenticator(cfg, sess)); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "Starting synchronization...")
				fmt.Fprintln(cmd.OutOrStdout())

				env, err := openSyncEnv(ctx, cfg, sess, files, func(msg string) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
				})
				if err != nil {
					return err
				}
				defer env.Close()

				result, err := env.syncer.Sync(ctx)
				if err != nil {
					if errors.Is(err, context.DeadlineExceeded) {
						return fmt.Errorf("sync operation timed out after %s", cfg.Remote.Timeout)
					}

					return fmt.Errorf("sync failed: %w", err)
				}

				printSyncResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Show sync status without performing sync")

	return cmd
}

func printSyncResult(out io.Writer, result *sync.Result) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sync Results:")
	fmt.Fprintln(out, "─────────────────────────────────────")
	fmt.Fprintf(out, "  Total Duration:    %.2fs\n", result.TotalDuration.Seconds())
	fmt.Fprintf(out, "  Pull Duration:     %.2fs\n", result.PullDuration.Seconds())
	fmt.Fprintf(out, "  Push Duration:     %.2fs\n", result.PushDuration.Seconds())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Remote File:       %s\n", remoteState(result))
	fmt.Fprintf(out, "  Local Changed:     %t\n", result.LocalChanged)
	fmt.Fprintf(out, "  Pushed:            %t\n", result.Pushed)

	counts := result.Counts()
	if len(counts) > 0 {
		fmt.Fprintln(out)
		actions := make([]string, 0, len(counts))
		for action := range counts {
			actions = append(actions, string(action))
		}
		sort.Strings(actions)
		for _, action := range actions {
			fmt.Fprintf(out, "  %-18s %d\n", action+":", counts[sync.Action(action)])
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Sync completed successfully")
}

func remoteState(result *sync.Result) string {
	switch {
	case !result.RemoteFound:
		return "created"
	case result.RemoteSealed:
		return "sealed"
	default:
		return "plain"
	}
}

// printSyncStatus displays the current sync status without performing a sync.
func printSyncStatus(cmd *cobra.Command, ctx context.Context, cfg *config.Config, files *storage.FileStore) error {
	settings, err := files.LoadSettings(ctx)
	if err != nil {
		return loadError("settings", err)
	}

	local, err := files.LoadAccounts(ctx)
	if err != nil {
		return loadError("accounts", err)
	}

	journal, err := storage.NewSQLiteJournal(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("failed to open sync journal: %w", err)
	}
	defer journal.Close()

	status, err := sync.GetSyncStatusInfo(ctx, cfg, journal, settings, local)
	if err != nil {
		return fmt.Errorf("failed to get sync status: %w", err)
	}

	if cfg.Format != "text" {
		formatter, err := output.NewFormatter(cfg.Format)
		if err != nil {
			return err
		}
		out, err := formatter.Format(status)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Sync Status:")
	fmt.Fprintln(out, "─────────────────────────────────────")
	fmt.Fprintf(out, "  Client ID:         %s\n", status.ClientID)
	fmt.Fprintf(out, "  Backend:           %s\n", status.Backend)
	fmt.Fprintf(out, "  Records:           %d\n", status.Records)
	fmt.Fprintln(out)

	if status.LastSyncTime != nil {
		timeSince := time.Since(*status.LastSyncTime)
		fmt.Fprintf(out, "  Last Sync:         %s\n", status.LastSyncTimeStr)
		fmt.Fprintf(out, "  Time Since Sync:   %s\n", formatDuration(timeSince))
	} else {
		fmt.Fprintf(out, "  Last Sync:         never\n")
	}

	fmt.Fprintln(out)

	if status.NeedsSyncReason != "" {
		fmt.Fprintf(out, "⚠ Sync needed: %s\n", status.NeedsSyncReason)
	} else {
		fmt.Fprintln(out, "✓ All changes synced")
	}

	logrus.WithField("client_id", status.ClientID).Debug("sync status shown")
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	}

	if d < time.Hour {
		return fmt.Sprintf("%.0f minutes", d.Minutes())
	}

	if d < 24*time.Hour {
		return fmt.Sprintf("%.1f hours", d.Hours())
	}

	return fmt.Sprintf("%.1f days", d.Hours()/24)
}
