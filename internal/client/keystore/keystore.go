// Package keystore resolves the data key used to seal records.
package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/crypto"
)

// Source selects where the data key lives.
type Source string

const (
	SourceSettings Source = "settings"
	SourceKeyring  Source = "keyring"
)

// KeyringService is the OS keyring service name. The keyring user is the
// device's client access id.
const KeyringService = "bytepass"

var (
	ErrUnknownSource = errors.New("unknown key source")
	ErrKeyExists     = errors.New("a data key already exists")
	ErrNoKey         = errors.New("no data key stored")
)

// SettingsStore persists the settings document holding key_base64.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (document.SettingsDocument, error)
	SaveSettings(ctx context.Context, doc document.SettingsDocument) error
}

// Keystore reads, generates and persists the data key.
type Keystore struct {
	store  SettingsStore
	source Source
	log    logrus.FieldLogger
}

// ParseSource validates a configured key source. Empty means settings.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "", SourceSettings:
		return SourceSettings, nil
	case SourceKeyring:
		return SourceKeyring, nil
	default:
		return "", fmt.Errorf("%w: %q (must be settings or keyring)", ErrUnknownSource, s)
	}
}

func New(store SettingsStore, source Source, log logrus.FieldLogger) (*Keystore, error) {
	if _, err := ParseSource(string(source)); err != nil {
		return nil, err
	}
	if source == "" {
		source = SourceSettings
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Keystore{store: store, source: source, log: log}, nil
}

// Source returns the configured key source.
func (k *Keystore) Source() Source {
	return k.source
}

// Current returns the stored key without generating one. ErrNoKey is
// returned when nothing is stored.
func (k *Keystore) Current(ctx context.Context) ([]byte, error) {
	settings, err := k.store.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	encoded, err := k.read(settings)
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, ErrNoKey
	}

	key, err := crypto.DecodeKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("stored data key (%s) is unusable: %w", k.source, err)
	}
	return key, nil
}

// Resolve returns the data key. When none is stored a fresh key is generated
// and persisted before it is returned. A stored key that fails to decode is an
// error and is never replaced.
func (k *Keystore) Resolve(ctx context.Context) ([]byte, error) {
	key, err := k.Current(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrNoKey) {
		return nil, err
	}

	k.log.WithField("source", k.source).Info("no data key found, generating a new one")
	return k.Generate(ctx, false)
}

// Generate creates and persists a new key. Without force an existing key is
// left in place and ErrKeyExists is returned.
func (k *Keystore) Generate(ctx context.Context, force bool) ([]byte, error) {
	settings, err := k.store.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	existing, err := k.read(settings)
	if err != nil {
		return nil, err
	}
	if existing != "" && !force {
		return nil, ErrKeyExists
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	if err := k.write(ctx, settings, crypto.EncodeKey(key)); err != nil {
		return nil, err
	}

	k.log.WithFields(logrus.Fields{
		"source":   k.source,
		"replaced": existing != "",
	}).Debug("stored new data key")

	return key, nil
}

func (k *Keystore) read(settings document.SettingsDocument) (string, error) {
	if k.source == SourceSettings {
		return settings.KeyBase64, nil
	}

	secret, err := keyring.Get(KeyringService, settings.ClientAccessID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return secret, nil
}

func (k *Keystore) write(ctx context.Context, settings document.SettingsDocument, encoded string) error {
	if k.source == SourceSettings {
		settings.KeyBase64 = encoded
		if err := k.store.SaveSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to save data key: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, settings.ClientAccessID, encoded); err != nil {
		return fmt.Errorf("failed to save data key to keyring: %w", err)
	}
	return nil
}
