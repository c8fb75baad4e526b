package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	MaxRetries  int           // Maximum number of retry attempts
	InitialWait time.Duration // Initial wait time between retries
	MaxWait     time.Duration // Maximum wait time between retries
	Multiplier  float64       // Backoff multiplier (e.g., 2.0 for exponential)
}

// DefaultRetryConfig returns the backoff used for remote calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  2,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
	}
}

// Retry executes fn with exponential backoff. ErrFileNotFound is final and
// returned at once. Context cancellation stops waiting immediately.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error

	wait := cfg.InitialWait

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		}

		lastErr = fn()
		if lastErr == nil || errors.Is(lastErr, ErrFileNotFound) {
			return lastErr
		}

		// Don't wait after the last attempt
		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-time.After(wait):
			wait = time.Duration(float64(wait) * cfg.Multiplier)
			if wait > cfg.MaxWait {
				wait = cfg.MaxWait
			}
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}

	if cfg.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// RetryingStore retries the idempotent calls of a FileStore. CreateFile is
// attempted once so a lost response never yields a duplicate file.
type RetryingStore struct {
	next FileStore
	cfg  RetryConfig
	log  logrus.FieldLogger
}

var _ FileStore = (*RetryingStore)(nil)

func NewRetryingStore(next FileStore, cfg RetryConfig, log logrus.FieldLogger) *RetryingStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RetryingStore{next: next, cfg: cfg, log: log}
}

func (s *RetryingStore) do(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	return Retry(ctx, s.cfg, func() error {
		attempt++
		err := fn()
		if err != nil && !errors.Is(err, ErrFileNotFound) {
			s.log.WithFields(logrus.Fields{"op": op, "attempt": attempt, "error": err}).Debug("remote call failed")
		}
		return err
	})
}

func (s *RetryingStore) ListFiles(ctx context.Context, query, scope string) ([]FileMeta, error) {
	var files []FileMeta
	err := s.do(ctx, "list", func() error {
		var err error
		files, err = s.next.ListFiles(ctx, query, scope)
		return err
	})
	return files, err
}

func (s *RetryingStore) GetFileData(ctx context.Context, fileID string) ([]byte, error) {
	var data []byte
	err := s.do(ctx, "fetch", func() error {
		var err error
		data, err = s.next.GetFileData(ctx, fileID)
		return err
	})
	return data, err
}

func (s *RetryingStore) CreateFile(ctx context.Context, name, scope, mimeType string, data []byte) (FileMeta, error) {
	return s.next.CreateFile(ctx, name, scope, mimeType, data)
}

func (s *RetryingStore) UpdateFileData(ctx context.Context, fileID string, data []byte, mimeType string) error {
	return s.do(ctx, "update", func() error {
		return s.next.UpdateFileData(ctx, fileID, data, mimeType)
	})
}
