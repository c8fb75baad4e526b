package keystore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/crypto"
)

type memSettings struct {
	doc     document.SettingsDocument
	saves   int
	saveErr error
}

func newMemSettings() *memSettings {
	return &memSettings{doc: document.NewSettingsDocument(time.Now())}
}

func (m *memSettings) LoadSettings(context.Context) (document.SettingsDocument, error) {
	return m.doc, nil
}

func (m *memSettings) SaveSettings(_ context.Context, doc document.SettingsDocument) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = doc
	m.saves++
	return nil
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{in: "", want: SourceSettings},
		{in: "settings", want: SourceSettings},
		{in: "keyring", want: SourceKeyring},
		{in: "vault", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_SettingsGeneratesAndPersists(t *testing.T) {
	store := newMemSettings()
	log, _ := test.NewNullLogger()
	ks, err := New(store, SourceSettings, log)
	require.NoError(t, err)

	key, err := ks.Resolve(context.Background())
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeySize)

	require.Equal(t, 1, store.saves, "key must be saved before use")
	assert.Equal(t, crypto.EncodeKey(key), store.doc.KeyBase64)

	again, err := ks.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key, again)
	assert.Equal(t, 1, store.saves)
}

func TestResolve_SaveFailureReturnsNoKey(t *testing.T) {
	store := newMemSettings()
	store.saveErr = errors.New("disk full")
	log, _ := test.NewNullLogger()
	ks, err := New(store, SourceSettings, log)
	require.NoError(t, err)

	key, err := ks.Resolve(context.Background())
	require.Error(t, err)
	assert.Nil(t, key)
}

func TestResolve_InvalidStoredKeyIsNotReplaced(t *testing.T) {
	store := newMemSettings()
	store.doc.KeyBase64 = "c2hvcnQ="
	log, _ := test.NewNullLogger()
	ks, err := New(store, SourceSettings, log)
	require.NoError(t, err)

	_, err = ks.Resolve(context.Background())
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)
	assert.Equal(t, "c2hvcnQ=", store.doc.KeyBase64)
	assert.Zero(t, store.saves)
}

func TestGenerate_RefusesOverwriteWithoutForce(t *testing.T) {
	store := newMemSettings()
	log, _ := test.NewNullLogger()
	ks, err := New(store, SourceSettings, log)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := ks.Generate(ctx, false)
	require.NoError(t, err)

	_, err = ks.Generate(ctx, false)
	assert.ErrorIs(t, err, ErrKeyExists)

	second, err := ks.Generate(ctx, true)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	current, err := ks.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, current)
}

func TestCurrent_NoKey(t *testing.T) {
	log, _ := test.NewNullLogger()
	ks, err := New(newMemSettings(), SourceSettings, log)
	require.NoError(t, err)

	_, err = ks.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestResolve_Keyring(t *testing.T) {
	keyring.MockInit()

	store := newMemSettings()
	log, _ := test.NewNullLogger()
	ks, err := New(store, SourceKeyring, log)
	require.NoError(t, err)

	key, err := ks.Resolve(context.Background())
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeySize)

	stored, err := keyring.Get(KeyringService, store.doc.ClientAccessID)
	require.NoError(t, err)
	assert.Equal(t, crypto.EncodeKey(key), stored)
	assert.Empty(t, store.doc.KeyBase64, "keyring source must not write the settings key")

	again, err := ks.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestResolve_KeyringFailure(t *testing.T) {
	keyring.MockInitWithError(errors.New("keyring locked"))
	t.Cleanup(keyring.MockInit)

	log, _ := test.NewNullLogger()
	ks, err := New(newMemSettings(), SourceKeyring, log)
	require.NoError(t, err)

	_, err = ks.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyring locked")
}
