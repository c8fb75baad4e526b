package remote

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBolt(t *testing.T) *BoltStore {
	t.Helper()

	s, err := OpenBoltStore(filepath.Join(t.TempDir(), "remote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestBoltStore_CreateListGet(t *testing.T) {
	s := openTestBolt(t)
	ctx := context.Background()

	meta, err := s.CreateFile(ctx, "accounts.json", ScopeAppData, MimeJSON, []byte(`{"accounts":[]}`))
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, "accounts.json", meta.Name)
	assert.Equal(t, MimeJSON, meta.MimeType)
	assert.False(t, meta.CreatedTime.IsZero())

	_, err = s.CreateFile(ctx, "other.json", "elsewhere", MimeJSON, []byte(`{}`))
	require.NoError(t, err)

	files, err := s.ListFiles(ctx, QueryNotTrashed, ScopeAppData)
	require.NoError(t, err)
	require.Len(t, files, 1)

	found, ok := FindByName(files, "accounts.json")
	require.True(t, ok)
	assert.Equal(t, meta.ID, found.ID)

	data, err := s.GetFileData(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"accounts":[]}`, string(data))
}

func TestBoltStore_UpdateFileData(t *testing.T) {
	s := openTestBolt(t)
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	meta, err := s.CreateFile(ctx, "accounts.json", ScopeAppData, MimeJSON, []byte("v1"))
	require.NoError(t, err)

	s.now = func() time.Time { return created.Add(time.Hour) }
	require.NoError(t, s.UpdateFileData(ctx, meta.ID, []byte("v2"), "text/plain"))

	data, err := s.GetFileData(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	files, err := s.ListFiles(ctx, "", ScopeAppData)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "text/plain", files[0].MimeType)
	assert.True(t, files[0].CreatedTime.Equal(created))
	assert.True(t, files[0].ModifiedTime.Equal(created.Add(time.Hour)))
}

func TestBoltStore_Errors(t *testing.T) {
	s := openTestBolt(t)
	ctx := context.Background()

	_, err := s.GetFileData(ctx, "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)

	err = s.UpdateFileData(ctx, "missing", []byte("x"), MimeJSON)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = s.ListFiles(ctx, "name contains 'x'", ScopeAppData)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.ListFiles(cancelled, QueryNotTrashed, ScopeAppData)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticAuth(t *testing.T) {
	ctx := context.Background()
	a := NewStaticAuth()
	assert.True(t, a.IsSignedIn(ctx))

	require.NoError(t, a.SignOut(ctx))
	assert.False(t, a.IsSignedIn(ctx))

	require.NoError(t, a.SignIn(ctx))
	assert.True(t, a.IsSignedIn(ctx))

	assert.Error(t, a.HandleRedirect(ctx, "bytepass://callback"))
}
