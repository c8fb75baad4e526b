package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritchy/BytePass/internal/client/document"
)

func newTestFileStore(t *testing.T) (*FileStore, *test.Hook) {
	t.Helper()

	log, hook := test.NewNullLogger()
	s, err := NewFileStore(t.TempDir(), log)
	require.NoError(t, err)

	return s, hook
}

func TestNewFileStore_CreatesDataDir(t *testing.T) {
	root := t.TempDir()

	s, err := NewFileStore(root, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DataDirName), s.Dir())

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// idempotent
	_, err = NewFileStore(root, nil)
	assert.NoError(t, err)
}

func TestLoadAccounts_CreatesWhenAbsent(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	doc, err := s.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Accounts)
	assert.NotEmpty(t, doc.LastUpdated)

	_, err = os.Stat(s.Path(document.AccountsName))
	assert.NoError(t, err, "empty collection should be persisted")
}

func TestSaveAndLoadAccounts(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	doc := document.NewAccountsDocument(time.Now())
	doc.Accounts = append(doc.Accounts, document.NewAccount("Bank", time.Now()))

	require.NoError(t, s.SaveAccounts(ctx, doc))

	info, err := os.Stat(s.Path(document.AccountsName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := s.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp files must not be left behind")
	}
}

func TestSaveAccounts_RejectsInvalidRecords(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	doc := document.NewAccountsDocument(time.Now())
	doc.Accounts = append(doc.Accounts, document.NewAccount(document.PlaceholderName, time.Now()))

	err := s.SaveAccounts(ctx, doc)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, statErr := os.Stat(s.Path(document.AccountsName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadAccounts_QuarantinesCorruptFile(t *testing.T) {
	s, hook := newTestFileStore(t)
	ctx := context.Background()

	path := s.Path(document.AccountsName)
	corrupt := []byte(`{"accounts": [{"name": "half`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o600))

	_, err := s.LoadAccounts(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, document.ErrDecode), "expected decode error, got: %v", err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt file should be moved aside")

	quarantined, err := s.Quarantined()
	require.NoError(t, err)
	require.Len(t, quarantined, 1)

	saved, err := os.ReadFile(quarantined[0])
	require.NoError(t, err)
	assert.Equal(t, corrupt, saved, "corrupt bytes must be preserved")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	// no silent recreation until an explicit reset
	_, err = s.LoadAccounts(ctx)
	assert.ErrorIs(t, err, ErrQuarantined)
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "load must not recreate a quarantined document")

	doc, err := s.ResetAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Accounts)

	reloaded, err := s.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, reloaded)

	kept, err := s.Quarantined(document.AccountsName)
	require.NoError(t, err)
	assert.Equal(t, quarantined, kept, "reset keeps the corrupt copy")
}

func TestResetSettingsAndAccess(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(s.Path(document.SettingsName), []byte("not json"), 0o600))
	require.NoError(t, os.WriteFile(s.Path(document.AccessName), []byte(`{"clients": 3}`), 0o600))

	_, err := s.LoadSettings(ctx)
	assert.ErrorIs(t, err, document.ErrDecode)
	_, err = s.LoadAccess(ctx)
	assert.ErrorIs(t, err, document.ErrDecode)

	_, err = s.LoadSettings(ctx)
	assert.ErrorIs(t, err, ErrQuarantined)

	settingsCopies, err := s.Quarantined(document.SettingsName)
	require.NoError(t, err)
	assert.Len(t, settingsCopies, 1)

	all, err := s.Quarantined()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	settings, err := s.ResetSettings(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, settings.ClientAccessID)
	assert.Empty(t, settings.KeyBase64)

	loaded, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)

	access, err := s.ResetAccess(ctx)
	require.NoError(t, err)
	assert.Empty(t, access.Clients)

	_, err = s.LoadAccess(ctx)
	assert.NoError(t, err)
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	doc, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.KeyBase64)
	assert.NotEmpty(t, doc.ClientAccessID)
	assert.Equal(t, "Bearer", doc.AuthClient.Type)

	again, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.ClientAccessID, again.ClientAccessID, "defaults must be persisted")
}

func TestSaveSettings_RoundTripsAuthClient(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	doc := document.SettingsDocument{
		KeyBase64:      "a2V5",
		ClientAccessID: "c",
		AuthClient:     document.AuthClient{Data: "tok", Type: "Bearer", Expiry: "e", RefreshToken: "r"},
	}
	require.NoError(t, s.SaveSettings(ctx, doc))

	loaded, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestAccessLedger(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	doc, err := s.LoadAccess(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Clients)

	require.NoError(t, doc.AddClientRequest(document.ClientRequest{ClientID: "c1", ClientName: "phone"}, time.Now()))
	require.NoError(t, s.SaveAccess(ctx, doc))

	loaded, err := s.LoadAccess(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Clients, 1)
	assert.Equal(t, document.AccessRequested, loaded.Clients[0].AccessStatus)
}

func TestLoad_CancelledContext(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LoadAccounts(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(s.Path(document.AccountsName))
	assert.True(t, os.IsNotExist(statErr))
}
