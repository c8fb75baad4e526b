package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ritchy/BytePass/internal/client/keystore"
	"github.com/ritchy/BytePass/internal/client/remote"
)

type memFile struct {
	meta  remote.FileMeta
	scope string
	data  []byte
}

// memRemote is an in-memory remote.FileStore with failure injection.
type memRemote struct {
	mu     sync.Mutex
	files  map[string]*memFile
	nextID int

	listErr   error
	getErr    error
	writeErr  error
	creates   int
	updates   int
	listGate  chan struct{}
	listEnter chan struct{}
}

func newMemRemote() *memRemote {
	return &memRemote{files: map[string]*memFile{}}
}

func (m *memRemote) ListFiles(ctx context.Context, _, scope string) ([]remote.FileMeta, error) {
	if m.listEnter != nil {
		m.listEnter <- struct{}{}
	}
	if m.listGate != nil {
		select {
		case <-m.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	var out []remote.FileMeta
	for _, f := range m.files {
		if f.scope == scope {
			out = append(out, f.meta)
		}
	}
	return out, nil
}

func (m *memRemote) GetFileData(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	f, ok := m.files[fileID]
	if !ok {
		return nil, remote.ErrFileNotFound
	}
	return append([]byte(nil), f.data...), nil
}

func (m *memRemote) CreateFile(_ context.Context, name, scope, mimeType string, data []byte) (remote.FileMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return remote.FileMeta{}, m.writeErr
	}

	m.nextID++
	now := time.Now().UTC()
	f := &memFile{
		meta: remote.FileMeta{
			ID:           fmt.Sprintf("file-%d", m.nextID),
			Name:         name,
			MimeType:     mimeType,
			CreatedTime:  now,
			ModifiedTime: now,
		},
		scope: scope,
		data:  append([]byte(nil), data...),
	}
	m.files[f.meta.ID] = f
	m.creates++
	return f.meta, nil
}

func (m *memRemote) UpdateFileData(_ context.Context, fileID string, data []byte, mimeType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	f, ok := m.files[fileID]
	if !ok {
		return remote.ErrFileNotFound
	}
	f.data = append([]byte(nil), data...)
	f.meta.MimeType = mimeType
	f.meta.ModifiedTime = time.Now().UTC()
	m.updates++
	return nil
}

// put stores raw bytes under name in the app folder.
func (m *memRemote) put(name string, data []byte) string {
	meta, _ := m.CreateFile(context.Background(), name, remote.ScopeAppData, remote.MimeJSON, data)
	m.mu.Lock()
	m.creates--
	m.mu.Unlock()
	return meta.ID
}

func (m *memRemote) data(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		if f.meta.Name == name && f.scope == remote.ScopeAppData {
			return append([]byte(nil), f.data...), true
		}
	}
	return nil, false
}

type fakeKeys struct {
	key []byte
	err error
}

func (k fakeKeys) Current(context.Context) ([]byte, error) {
	if k.key == nil && k.err == nil {
		return nil, keystore.ErrNoKey
	}
	return k.key, k.err
}

func (k fakeKeys) Resolve(context.Context) ([]byte, error) {
	return k.key, k.err
}
