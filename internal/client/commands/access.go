package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/output"
	"github.com/ritchy/BytePass/internal/client/session"
	"github.com/ritchy/BytePass/internal/client/storage"
	"github.com/ritchy/BytePass/internal/client/sync"
)

// NewAccessCommands returns the access ledger command group
func NewAccessCommands(getCfg func() *config.Config, getSess func() *session.Session, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Manage the client access ledger",
		Long:  "Commands for the ledger of clients that asked for access to the accounts",
	}

	accessCmd.AddCommand(newAccessRequestCmd(getSess, getFiles))
	accessCmd.AddCommand(newAccessListCmd(getCfg, getFiles))
	accessCmd.AddCommand(newAccessSyncCmd(getCfg, getSess, getFiles))

	return accessCmd
}

func newAccessRequestCmd(getSess func() *session.Session, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var (
		name      string
		publicKey string
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Record an access request for this client",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := getSess()

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				ledger := sync.NewLedger(files, sess.ClientID(), logrus.StandardLogger())

				req, err := ledger.RequestAccess(ctx, name, publicKey)
				if err != nil {
					return fmt.Errorf("failed to request access: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "✓ Access requested for '%s' (%s)\n", req.ClientName, req.ClientID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Client name (required)")
	cmd.Flags().StringVar(&publicKey, "public-key", "", "Client public key")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newAccessListCmd(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List clients in the local ledger",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				doc, err := files.LoadAccess(ctx)
				if err != nil {
					return loadError("access", err)
				}

				out, err := output.FormatClients(doc.Clients, cfg.Format)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newAccessSyncCmd(getCfg func() *config.Config, getSess func() *session.Session, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge the access ledger with the remote copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			sess := getSess()

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				if err := requireAuth(ctx, authenticator(cfg, sess)); err != nil {
					return err
				}

				env, err := openSyncEnv(ctx, cfg, sess, files, nil)
				if err != nil {
					return err
				}
				defer env.Close()

				res, err := env.syncer.SyncAccess(ctx)
				if err != nil {
					return fmt.Errorf("access sync failed: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "  Merged from remote: %d\n", res.Merged)
				fmt.Fprintf(out, "  Pushed:             %t\n", res.Pushed)
				if res.Created {
					fmt.Fprintln(out, "  Remote ledger created")
				}
				fmt.Fprintf(out, "✓ %d client(s) in ledger\n", len(res.Clients))
				return nil
			})
		},
	}
}
