package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// filesBucket maps file id to its scope bucket name
var filesBucket = []byte("files")

type boltFile struct {
	Meta  FileMeta `json:"meta"`
	Scope string   `json:"scope"`
	Data  []byte   `json:"data"`
}

// BoltStore keeps remote files in a single bbolt database, e.g. on a shared
// or synced folder.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

var _ FileStore = (*BoltStore)(nil)

// OpenBoltStore opens or creates the database at path
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(filesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", filesBucket, err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) ListFiles(ctx context.Context, query, scope string) ([]FileMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !matchesQuery(query) {
		return nil, fmt.Errorf("unsupported query %q", query)
	}

	var files []FileMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).ForEach(func(_, v []byte) error {
			var f boltFile
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("corrupt file entry: %w", err)
			}
			if f.Scope == scope {
				files = append(files, f.Meta)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (s *BoltStore) GetFileData(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		f, err := getBoltFile(tx, fileID)
		if err != nil {
			return err
		}
		data = f.Data
		return nil
	})

	return data, err
}

func (s *BoltStore) CreateFile(ctx context.Context, name, scope, mimeType string, data []byte) (FileMeta, error) {
	if err := ctx.Err(); err != nil {
		return FileMeta{}, err
	}

	now := s.now().UTC()
	f := boltFile{
		Meta: FileMeta{
			ID:           uuid.New().String(),
			Name:         name,
			MimeType:     mimeType,
			CreatedTime:  now,
			ModifiedTime: now,
		},
		Scope: scope,
		Data:  data,
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return putBoltFile(tx, f)
	})
	if err != nil {
		return FileMeta{}, err
	}

	return f.Meta, nil
}

func (s *BoltStore) UpdateFileData(ctx context.Context, fileID string, data []byte, mimeType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		f, err := getBoltFile(tx, fileID)
		if err != nil {
			return err
		}
		f.Data = data
		f.Meta.MimeType = mimeType
		f.Meta.ModifiedTime = s.now().UTC()
		return putBoltFile(tx, f)
	})
}

func getBoltFile(tx *bolt.Tx, fileID string) (boltFile, error) {
	var f boltFile
	v := tx.Bucket(filesBucket).Get([]byte(fileID))
	if v == nil {
		return f, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	// Unmarshal copies, so the result outlives the transaction
	if err := json.Unmarshal(v, &f); err != nil {
		return f, fmt.Errorf("corrupt file entry %s: %w", fileID, err)
	}
	return f, nil
}

func putBoltFile(tx *bolt.Tx, f boltFile) error {
	v, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal file entry: %w", err)
	}
	return tx.Bucket(filesBucket).Put([]byte(f.Meta.ID), v)
}
