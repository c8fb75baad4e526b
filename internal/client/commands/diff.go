package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/output"
	"github.com/ritchy/BytePass/internal/client/session"
	"github.com/ritchy/BytePass/internal/client/storage"
)

// NewDiffCommand creates the diff command
func NewDiffCommand(getCfg func() *config.Config, getSess func() *session.Session, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "diff ID",
		Short: "Compare a local account with its remote copy",
		Long: `Download the remote accounts file and show a line diff between the local
and remote copies of one account. Nothing is changed on either side; sync
always keeps the copy with the newer last_updated as a whole.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			sess := getSess()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				if err := requireAuth(ctx, authenticator(cfg, sess)); err != nil {
					return err
				}

				env, err := openSyncEnv(ctx, cfg, sess, files, nil)
				if err != nil {
					return err
				}
				defer env.Close()

				remoteDoc, found, err := env.syncer.Peek(ctx)
				if err != nil {
					return fmt.Errorf("failed to read remote accounts: %w", err)
				}

				local := lookup(env.store.Snapshot(), id)
				var remote *document.Account
				if found {
					remote = lookup(remoteDoc, id)
				}

				if local == nil && remote == nil {
					return fmt.Errorf("account not found locally or on the remote: %d", id)
				}

				out := cmd.OutOrStdout()
				diff := output.RecordDiff(local, remote, reveal)
				if diff == "" {
					fmt.Fprintln(out, "✓ Local and remote copies are identical")
					return nil
				}

				fmt.Fprint(out, diff)
				fmt.Fprintln(out)
				fmt.Fprintln(out, winnerNote(local, remote))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Compare passwords in clear text")

	return cmd
}

// lookup finds id in the active list, then in the deleted list
func lookup(doc document.AccountsDocument, id int64) *document.Account {
	for _, list := range [][]document.Account{doc.Accounts, doc.DeletedAccounts} {
		for i := range list {
			if list[i].ID == id {
				a := list[i].Clone()
				return &a
			}
		}
	}
	return nil
}

// winnerNote states which copy the next sync keeps
func winnerNote(local, remote *document.Account) string {
	switch {
	case remote == nil:
		return "Only local: the next sync pushes this account"
	case local == nil:
		return "Only remote: the next sync adds this account locally"
	}

	localTS, err := document.ParseTimestamp(local.LastUpdated)
	if err != nil {
		return "Local timestamp is unreadable: the next sync leaves this account untouched"
	}
	remoteTS, err := document.ParseTimestamp(remote.LastUpdated)
	if err != nil {
		remoteTS = document.Epoch
	}

	switch {
	case remoteTS.After(localTS):
		return "Remote is newer: the next sync replaces the local copy"
	case localTS.After(remoteTS):
		return "Local is newer: the next sync pushes the local copy"
	default:
		return "Same timestamp: the next sync keeps both sides as they are"
	}
}
