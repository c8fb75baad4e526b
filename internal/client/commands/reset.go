package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/output"
	"github.com/ritchy/BytePass/internal/client/storage"
)

// SkipSessionAnnotation marks commands that must run even when settings.json
// cannot be loaded.
const SkipSessionAnnotation = "bytepass/skip-session"

type resetTarget struct {
	file    string
	warning string
	reset   func(ctx context.Context, files *storage.FileStore) error
}

var resetTargets = map[string]resetTarget{
	"accounts": {
		file:    document.AccountsName,
		warning: "All local accounts are replaced by an empty collection. A later sync pulls the remote copy back.",
		reset: func(ctx context.Context, files *storage.FileStore) error {
			_, err := files.ResetAccounts(ctx)
			return err
		},
	},
	"settings": {
		file:    document.SettingsName,
		warning: "The data key, the device id and the sign-in are discarded.",
		reset: func(ctx context.Context, files *storage.FileStore) error {
			_, err := files.ResetSettings(ctx)
			return err
		},
	},
	"access": {
		file:    document.AccessName,
		warning: "The local access ledger is emptied.",
		reset: func(ctx context.Context, files *storage.FileStore) error {
			_, err := files.ResetAccess(ctx)
			return err
		},
	},
}

// NewResetCommand returns the command that recovers a corrupt local document
func NewResetCommand(getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var noConfirm bool

	cmd := &cobra.Command{
		Use:   "reset accounts|settings|access",
		Short: "Replace a local document with a fresh one",
		Long: `Replace a local document with a fresh one.

A document that fails to decode is moved aside as <name>.corrupt-<time> and is
not recreated until it is reset. Reset lists those copies and keeps them.`,
		Args:        cobra.ExactArgs(1),
		ValidArgs:   []string{"accounts", "settings", "access"},
		Annotations: map[string]string{SkipSessionAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, ok := resetTargets[args[0]]
			if !ok {
				return fmt.Errorf("unknown document %q: must be accounts, settings or access", args[0])
			}

			return withStorage(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore) error {
				out := cmd.OutOrStdout()

				aside, err := files.Quarantined(target.file)
				if err != nil {
					return err
				}
				if len(aside) == 0 {
					fmt.Fprintf(out, "No quarantined copies of %s\n", target.file)
				} else {
					fmt.Fprintf(out, "Quarantined copies of %s (kept):\n", target.file)
					for _, path := range aside {
						fmt.Fprintf(out, "  %s\n", path)
					}
				}

				confirmed, err := confirmReset(target, noConfirm)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Reset cancelled")
					return nil
				}

				if err := target.reset(ctx, files); err != nil {
					return fmt.Errorf("failed to reset %s: %w", target.file, err)
				}

				fmt.Fprint(out, output.FormatSuccess(fmt.Sprintf("%s reset", target.file)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func confirmReset(target resetTarget, noConfirm bool) (bool, error) {
	if noConfirm {
		return true, nil
	}

	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Reset %s?", target.file)).
				Description(target.warning).
				Value(&confirm),
		),
	)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("operation cancelled: %w", err)
	}

	return confirm, nil
}
