package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/keystore"
	"github.com/ritchy/BytePass/internal/client/storage"
	"github.com/ritchy/BytePass/internal/crypto"
)

// NewKeyCommands returns the data key command group
func NewKeyCommands(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the data key",
		Long:  "Commands for the key that seals the remote accounts file",
	}

	keyCmd.AddCommand(newKeyShowCmd(getCfg, getFiles))
	keyCmd.AddCommand(newKeyGenerateCmd(getCfg, getFiles))

	return keyCmd
}

func newKeyShowCmd(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the data key (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				keys, err := newKeystore(cfg, files)
				if err != nil {
					return err
				}

				key, err := keys.Current(ctx)
				if errors.Is(err, keystore.ErrNoKey) {
					return fmt.Errorf("no data key stored in %s, run 'bytepass key generate'", keys.Source())
				}
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), crypto.EncodeKey(key))
				return nil
			})
		},
	}
}

func newKeyGenerateCmd(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store a new data key",
		Long: `Generate a random 256-bit data key and store it in the configured key source.
An existing key is kept unless --force is given. Replacing the key makes
remote files sealed with the old key unreadable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				keys, err := newKeystore(cfg, files)
				if err != nil {
					return err
				}

				if _, err := keys.Generate(ctx, force); err != nil {
					if errors.Is(err, keystore.ErrKeyExists) {
						return fmt.Errorf("%w; use --force to replace it", err)
					}
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "✓ New data key stored in %s\n", keys.Source())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing key")

	return cmd
}
