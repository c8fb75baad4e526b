package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/remote"
	"github.com/ritchy/BytePass/internal/crypto"
)

// pulled is a fully read and decoded remote accounts file.
type pulled struct {
	meta   remote.FileMeta
	found  bool
	sealed bool
	doc    document.AccountsDocument
}

// pull lists the app folder and downloads the accounts file. Nothing is
// returned until the payload was read and decoded completely. An absent file
// yields an empty collection.
func (s *Syncer) pull(ctx context.Context) (*pulled, error) {
	meta, found, err := s.find(ctx, document.AccountsName)
	if err != nil {
		return nil, err
	}
	if !found {
		s.log.WithField("op", "pull").Info("no remote accounts file, local records will be pushed")
		return &pulled{doc: document.NewAccountsDocument(s.now())}, nil
	}

	data, err := s.fetch(ctx, meta.ID)
	if err != nil {
		return nil, err
	}

	doc, sealed, err := s.decodePayload(ctx, data)
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": "pull", "file_id": meta.ID, "error": err}).Error("failed to decode remote accounts")
		return nil, err
	}

	return &pulled{meta: meta, found: true, sealed: sealed, doc: doc}, nil
}

// Peek downloads the remote accounts collection without reconciling it.
// found is false when the remote holds no accounts file yet.
func (s *Syncer) Peek(ctx context.Context) (doc document.AccountsDocument, found bool, err error) {
	if !s.auth.IsSignedIn(ctx) {
		return doc, false, s.remoteErr("auth", ErrNotSignedIn)
	}

	p, err := s.pull(ctx)
	if err != nil {
		return doc, false, err
	}
	return p.doc, p.found, nil
}

// find looks up a file by name in the app folder.
func (s *Syncer) find(ctx context.Context, name string) (remote.FileMeta, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	files, err := s.remote.ListFiles(callCtx, remote.QueryNotTrashed, remote.ScopeAppData)
	if err != nil {
		return remote.FileMeta{}, false, s.remoteErr("list", err)
	}

	meta, found := remote.FindByName(files, name)
	return meta, found, nil
}

func (s *Syncer) fetch(ctx context.Context, fileID string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	data, err := s.remote.GetFileData(callCtx, fileID)
	if err != nil {
		return nil, s.remoteErr("fetch", err)
	}
	return data, nil
}

// decodePayload accepts plain JSON or a base64 sealed envelope.
func (s *Syncer) decodePayload(ctx context.Context, data []byte) (document.AccountsDocument, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		doc, err := document.DecodeAccounts(trimmed)
		return doc, false, err
	}

	key, err := s.openKey(ctx)
	if err != nil {
		return document.AccountsDocument{}, true, err
	}

	plain, err := crypto.Decrypt(string(trimmed), key)
	if err != nil {
		return document.AccountsDocument{}, true, fmt.Errorf("failed to open remote accounts: %w", err)
	}

	doc, err := document.DecodeAccounts(plain)
	return doc, true, err
}

// openKey returns the stored data key for reading a sealed payload. It never
// generates a key: a fresh one could not open the payload anyway.
func (s *Syncer) openKey(ctx context.Context) ([]byte, error) {
	if s.keys == nil {
		return nil, errors.New("remote accounts are sealed but no data key is configured")
	}
	key, err := s.keys.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote accounts are sealed: %w", err)
	}
	return key, nil
}

// sealKey returns the data key for sealing, generating and persisting one
// when none is stored.
func (s *Syncer) sealKey(ctx context.Context) ([]byte, error) {
	if s.keys == nil {
		return nil, errors.New("remote accounts must be sealed but no data key is configured")
	}
	key, err := s.keys.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data key: %w", err)
	}
	return key, nil
}

func (s *Syncer) remoteErr(op string, err error) error {
	s.log.WithFields(logrus.Fields{"op": op, "error": err}).Error("remote call failed")
	return &RemoteError{Op: op, Err: err}
}
