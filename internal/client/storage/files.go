package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
)

// DataDirName is the subfolder of the application data directory that holds
// every document.
const DataDirName = "BytePassData"

const quarantineMarker = ".corrupt-"

var (
	ErrIO            = errors.New("storage i/o failure")
	ErrInvalidRecord = errors.New("invalid record")

	// ErrQuarantined is returned while a document is missing because its
	// corrupt copy was set aside and no reset has happened yet.
	ErrQuarantined = errors.New("document was quarantined")
)

// FileStore reads and writes the JSON documents under <dataDir>/BytePassData.
type FileStore struct {
	dir string
	mu  sync.Mutex
	log logrus.FieldLogger
	now func() time.Time
}

// NewFileStore creates the data folder if needed and returns a store for it.
func NewFileStore(dataDir string, log logrus.FieldLogger) (*FileStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	dir := filepath.Join(dataDir, DataDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: failed to create data directory %s: %w", ErrIO, dir, err)
	}

	return &FileStore{dir: dir, log: log, now: time.Now}, nil
}

// Dir returns the folder holding the documents.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the full path of a document file.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// LoadAccounts reads accounts.json. A missing file is replaced by a freshly
// persisted empty collection. A corrupt file is quarantined and a
// *document.DecodeError is returned; nothing is written in that case. Until
// ResetAccounts runs, later loads fail with ErrQuarantined.
func (s *FileStore) LoadAccounts(ctx context.Context) (document.AccountsDocument, error) {
	return load(ctx, s, document.AccountsName, document.DecodeAccounts, s.freshAccounts, document.EncodeAccounts)
}

// SaveAccounts atomically writes accounts.json. Collections holding invalid
// records are refused.
func (s *FileStore) SaveAccounts(ctx context.Context, doc document.AccountsDocument) error {
	if bad := doc.Invalid(); len(bad) > 0 {
		return fmt.Errorf("%w: record %d has no usable name", ErrInvalidRecord, bad[0].ID)
	}
	return save(ctx, s, document.AccountsName, doc, document.EncodeAccounts)
}

// ResetAccounts replaces accounts.json with an empty collection. Quarantined
// copies are kept.
func (s *FileStore) ResetAccounts(ctx context.Context) (document.AccountsDocument, error) {
	doc := s.freshAccounts()
	return doc, s.SaveAccounts(ctx, doc)
}

// LoadSettings reads settings.json, creating defaults when absent.
func (s *FileStore) LoadSettings(ctx context.Context) (document.SettingsDocument, error) {
	return load(ctx, s, document.SettingsName, document.DecodeSettings, s.freshSettings, document.EncodeSettings)
}

// SaveSettings atomically writes settings.json.
func (s *FileStore) SaveSettings(ctx context.Context, doc document.SettingsDocument) error {
	return save(ctx, s, document.SettingsName, doc, document.EncodeSettings)
}

// ResetSettings replaces settings.json with defaults.
func (s *FileStore) ResetSettings(ctx context.Context) (document.SettingsDocument, error) {
	doc := s.freshSettings()
	return doc, s.SaveSettings(ctx, doc)
}

// LoadAccess reads access.json, creating an empty ledger when absent.
func (s *FileStore) LoadAccess(ctx context.Context) (document.AccessDocument, error) {
	return load(ctx, s, document.AccessName, document.DecodeAccess, s.freshAccess, document.EncodeAccess)
}

// SaveAccess atomically writes access.json.
func (s *FileStore) SaveAccess(ctx context.Context, doc document.AccessDocument) error {
	return save(ctx, s, document.AccessName, doc, document.EncodeAccess)
}

// ResetAccess replaces access.json with an empty ledger.
func (s *FileStore) ResetAccess(ctx context.Context) (document.AccessDocument, error) {
	doc := s.freshAccess()
	return doc, s.SaveAccess(ctx, doc)
}

// Quarantined lists the corrupt files set aside so far, oldest first. With
// names given only copies of those documents are listed.
func (s *FileStore) Quarantined(names ...string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %s: %w", ErrIO, s.dir, err)
	}

	var files []string
	for _, e := range entries {
		if isQuarantineOf(e.Name(), names) {
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

func isQuarantineOf(file string, names []string) bool {
	if len(names) == 0 {
		return strings.Contains(file, quarantineMarker)
	}
	for _, name := range names {
		if strings.HasPrefix(file, name+quarantineMarker) {
			return true
		}
	}
	return false
}

func (s *FileStore) freshAccounts() document.AccountsDocument {
	return document.NewAccountsDocument(s.now())
}

func (s *FileStore) freshSettings() document.SettingsDocument {
	return document.NewSettingsDocument(s.now())
}

func (s *FileStore) freshAccess() document.AccessDocument {
	return document.NewAccessDocument(s.now())
}

func load[T any](
	ctx context.Context,
	s *FileStore,
	name string,
	decode func([]byte) (T, error),
	fresh func() T,
	encode func(T) ([]byte, error),
) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return zero, fmt.Errorf("%w: failed to read %s: %w", ErrIO, name, err)
		}

		aside, err := s.Quarantined(name)
		if err != nil {
			return zero, err
		}
		if len(aside) > 0 {
			return zero, fmt.Errorf("%w: %s is missing, last corrupt copy is %s", ErrQuarantined, name, aside[len(aside)-1])
		}

		doc := fresh()
		if err := writeLocked(s, name, doc, encode); err != nil {
			return zero, err
		}
		s.log.WithField("file", name).Debug("created new document")

		return doc, nil
	}

	doc, err := decode(data)
	if err != nil {
		quarantined, qerr := s.quarantineLocked(path)
		if qerr != nil {
			return zero, errors.Join(err, qerr)
		}
		s.log.WithFields(logrus.Fields{
			"file":        name,
			"quarantined": quarantined,
			"error":       err,
		}).Warn("document is corrupt, moved aside")

		return zero, err
	}

	return doc, nil
}

func save[T any](ctx context.Context, s *FileStore, name string, doc T, encode func(T) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeLocked(s, name, doc, encode)
}

func writeLocked[T any](s *FileStore, name string, doc T, encode func(T) ([]byte, error)) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	if err := writeAtomic(s.Path(name), data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return nil
}

func (s *FileStore) quarantineLocked(path string) (string, error) {
	target := fmt.Sprintf("%s%s%d", path, quarantineMarker, s.now().UnixNano())
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("%w: failed to quarantine %s: %w", ErrIO, path, err)
	}
	return target, nil
}

// writeAtomic writes data to a temp file in the same directory, syncs it and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename into place: %w", err)
	}

	return nil
}
