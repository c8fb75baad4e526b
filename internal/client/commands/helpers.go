package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/remote"
	"github.com/ritchy/BytePass/internal/client/session"
	"github.com/ritchy/BytePass/internal/client/storage"
	"github.com/ritchy/BytePass/internal/client/vault"
)

// requireAuth checks if the authenticator is signed in and returns an error if not.
func requireAuth(ctx context.Context, auth remote.Authenticator) error {
	if !auth.IsSignedIn(ctx) {
		return session.ErrSignInRequired
	}

	return nil
}

// commandContext returns the command's context, falling back to Background
// when the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withStorage opens the local document store and hands it to fn.
func withStorage(ctx context.Context, getFiles func() (*storage.FileStore, error), fn func(ctx context.Context, files *storage.FileStore) error) error {
	files, err := getFiles()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	return fn(ctx, files)
}

// withVault loads accounts.json into a record store and hands both to fn.
func withVault(ctx context.Context, getFiles func() (*storage.FileStore, error), fn func(ctx context.Context, files *storage.FileStore, store *vault.Store) error) error {
	return withStorage(ctx, getFiles, func(ctx context.Context, files *storage.FileStore) error {
		doc, err := files.LoadAccounts(ctx)
		if err != nil {
			return loadError("accounts", err)
		}

		return fn(ctx, files, vault.New(doc, nil))
	})
}

// loadError wraps a document load failure. Corrupt or quarantined documents
// get a hint naming the reset target.
func loadError(target string, err error) error {
	if errors.Is(err, document.ErrDecode) || errors.Is(err, storage.ErrQuarantined) {
		return fmt.Errorf("failed to load %s: %w; run 'bytepass reset %s' to start over", target, err, target)
	}
	return fmt.Errorf("failed to load %s: %w", target, err)
}

// parseID parses a record id given on the command line.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q: must be a number", s)
	}
	return id, nil
}

// getAccount looks an account up by id, including soft-deleted records.
func getAccount(store *vault.Store, id int64) (document.Account, error) {
	if a, ok := store.FindByID(id); ok {
		return a, nil
	}
	if a, ok := store.FindByID(id, store.Snapshot().DeletedAccounts); ok {
		return a, nil
	}
	return document.Account{}, fmt.Errorf("account not found: %d", id)
}

// confirmDeletion prompts the user to confirm deletion of an account.
// If noConfirm is true, it skips the confirmation prompt.
func confirmDeletion(name string, noConfirm bool) (bool, error) {
	if noConfirm {
		return true, nil
	}

	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete account '%s'?", name)).
				Description("The account moves to the deleted list and is kept for sync.").
				Value(&confirm),
		),
	)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("operation cancelled: %w", err)
	}

	return confirm, nil
}
