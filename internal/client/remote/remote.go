// Package remote provides the cloud file store the sync orchestrator talks to.
package remote

import (
	"context"
	"errors"
	"time"
)

const (
	// ScopeAppData is the private application folder on the remote store.
	ScopeAppData = "appDataFolder"

	// QueryNotTrashed lists every live file.
	QueryNotTrashed = "trashed=false"

	MimeJSON = "application/json"
)

var ErrFileNotFound = errors.New("remote file not found")

// FileMeta describes a file on the remote store.
type FileMeta struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mime_type"`
	CreatedTime  time.Time `json:"created_time"`
	ModifiedTime time.Time `json:"modified_time"`
}

// FileStore is the minimal remote file API needed for sync.
type FileStore interface {
	ListFiles(ctx context.Context, query, scope string) ([]FileMeta, error)
	GetFileData(ctx context.Context, fileID string) ([]byte, error)
	CreateFile(ctx context.Context, name, scope, mimeType string, data []byte) (FileMeta, error)
	UpdateFileData(ctx context.Context, fileID string, data []byte, mimeType string) error
}

// Authenticator gates access to the remote store.
type Authenticator interface {
	IsSignedIn(ctx context.Context) bool
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	HandleRedirect(ctx context.Context, rawURL string) error
}

// FindByName returns the first file called name.
func FindByName(files []FileMeta, name string) (FileMeta, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return FileMeta{}, false
}

// matchesQuery supports the only query the client issues. Stores here have no
// trash, so every file is live.
func matchesQuery(query string) bool {
	return query == "" || query == QueryNotTrashed
}
