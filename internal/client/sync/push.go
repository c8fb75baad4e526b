package sync

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/remote"
	"github.com/ritchy/BytePass/internal/crypto"
)

// push writes the merged collection to the remote store, updating the
// existing file in place or creating it. A remote that was read sealed stays
// sealed. It returns the remote file id.
func (s *Syncer) push(ctx context.Context, p *pulled, merged document.AccountsDocument) (string, error) {
	seal := s.opts.EncryptRemote || p.sealed

	payload, err := s.encodePayload(ctx, merged, seal)
	if err != nil {
		return "", err
	}

	fileID, err := s.upload(ctx, document.AccountsName, p.meta, p.found, payload)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"op":      "push",
		"file_id": fileID,
		"records": len(merged.Accounts),
		"sealed":  seal,
	}).Info("pushed accounts to remote")

	return fileID, nil
}

func (s *Syncer) encodePayload(ctx context.Context, doc document.AccountsDocument, seal bool) ([]byte, error) {
	data, err := document.EncodeAccounts(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode accounts: %w", err)
	}
	if !seal {
		return data, nil
	}

	key, err := s.sealKey(ctx)
	if err != nil {
		return nil, err
	}

	sealed, err := crypto.Encrypt(data, key)
	if err != nil {
		return nil, fmt.Errorf("failed to seal accounts: %w", err)
	}
	return []byte(sealed), nil
}

// upload replaces the file's bytes when it exists, else creates it.
func (s *Syncer) upload(ctx context.Context, name string, meta remote.FileMeta, exists bool, data []byte) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if exists {
		if err := s.remote.UpdateFileData(callCtx, meta.ID, data, remote.MimeJSON); err != nil {
			return "", s.remoteErr("push", err)
		}
		return meta.ID, nil
	}

	created, err := s.remote.CreateFile(callCtx, name, remote.ScopeAppData, remote.MimeJSON, data)
	if err != nil {
		return "", s.remoteErr("push", err)
	}
	return created.ID, nil
}
