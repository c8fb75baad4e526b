package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/keystore"
	"github.com/ritchy/BytePass/internal/client/remote"
	"github.com/ritchy/BytePass/internal/client/session"
	"github.com/ritchy/BytePass/internal/client/storage"
	"github.com/ritchy/BytePass/internal/client/sync"
	"github.com/ritchy/BytePass/internal/client/vault"
)

// openRemote opens the configured remote file store behind a retrying
// wrapper. The returned close function is never nil.
func openRemote(ctx context.Context, cfg *config.Config) (remote.FileStore, func() error, error) {
	store, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	retry := remote.DefaultRetryConfig()
	retry.MaxRetries = cfg.Remote.Retries
	return remote.NewRetryingStore(store, retry, logrus.StandardLogger()), closeFn, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (remote.FileStore, func() error, error) {
	switch cfg.Remote.Backend {
	case config.BackendBolt:
		store, err := remote.OpenBoltStore(cfg.Remote.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendS3:
		store, err := remote.NewS3Store(ctx, cfg.Remote.S3)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported remote backend: %s", cfg.Remote.Backend)
	}
}

// authenticator returns the sign-in gate for the configured backend. S3
// carries static credentials; the bolt file is gated by the session.
func authenticator(cfg *config.Config, sess *session.Session) remote.Authenticator {
	if cfg.Remote.Backend == config.BackendS3 {
		return remote.NewStaticAuth()
	}
	return sess
}

func newKeystore(cfg *config.Config, files *storage.FileStore) (*keystore.Keystore, error) {
	source, err := keystore.ParseSource(cfg.KeySource)
	if err != nil {
		return nil, err
	}
	return keystore.New(files, source, logrus.StandardLogger())
}

// syncEnv is a fully wired Syncer plus the resources it holds open.
type syncEnv struct {
	syncer  *sync.Syncer
	store   *vault.Store
	journal *storage.SQLiteJournal
	closers []func() error
}

// openSyncEnv wires the record store, journal, remote, keystore and auth
// gate into a Syncer.
func openSyncEnv(ctx context.Context, cfg *config.Config, sess *session.Session, files *storage.FileStore, progress func(string)) (*syncEnv, error) {
	log := logrus.StandardLogger()

	doc, err := files.LoadAccounts(ctx)
	if err != nil {
		return nil, loadError("accounts", err)
	}

	env := &syncEnv{store: vault.New(doc, log)}

	journal, err := storage.NewSQLiteJournal(cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open sync journal: %w", err)
	}
	env.journal = journal
	env.closers = append(env.closers, journal.Close)

	rs, closeRemote, err := openRemote(ctx, cfg)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}
	env.closers = append(env.closers, closeRemote)

	keys, err := newKeystore(cfg, files)
	if err != nil {
		env.Close()
		return nil, err
	}

	env.syncer, err = sync.NewSyncer(sync.Deps{
		Engine:  sync.NewEngine(env.store, files, journal, log),
		Remote:  rs,
		Auth:    authenticator(cfg, sess),
		Keys:    keys,
		Access:  files,
		Journal: journal,
		Config:  cfg,
	}, sync.Options{
		EncryptRemote:    cfg.EncryptRemote,
		Timeout:          cfg.Remote.Timeout,
		ProgressCallback: progress,
	}, log)
	if err != nil {
		env.Close()
		return nil, err
	}

	return env, nil
}

// Close releases the journal and remote store.
func (e *syncEnv) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
