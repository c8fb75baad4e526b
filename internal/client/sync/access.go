package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
)

// AccessStore persists the local access ledger.
type AccessStore interface {
	LoadAccess(ctx context.Context) (document.AccessDocument, error)
	SaveAccess(ctx context.Context, doc document.AccessDocument) error
}

// AccessResult reports one access ledger sync.
type AccessResult struct {
	// Merged is how many remote clients were added to the local ledger
	Merged int
	// Pushed is true when the remote ledger was created or updated
	Pushed  bool
	Created bool
	Clients []document.ClientRequest
}

// SyncAccess exchanges the access ledger with the remote store. Clients are
// matched by client id and never modified; each side gains the entries it
// lacks. A missing remote ledger is created from the local one.
func (s *Syncer) SyncAccess(ctx context.Context) (*AccessResult, error) {
	if s.access == nil {
		return nil, errors.New("no access ledger configured")
	}
	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	if !s.auth.IsSignedIn(ctx) {
		return nil, s.remoteErr("auth", ErrNotSignedIn)
	}

	local, err := s.access.LoadAccess(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load access ledger: %w", err)
	}

	meta, found, err := s.find(ctx, document.AccessName)
	if err != nil {
		return nil, err
	}

	result := &AccessResult{}
	remoteDoc := document.NewAccessDocument(s.now())

	if found {
		data, err := s.fetch(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		remoteDoc, err = document.DecodeAccess(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode remote access ledger: %w", err)
		}

		result.Merged = local.MergeClients(remoteDoc, s.now())
		if result.Merged > 0 {
			if err := s.access.SaveAccess(ctx, local); err != nil {
				return nil, fmt.Errorf("failed to save access ledger: %w", err)
			}
		}
	}

	if missing := remoteDoc.MergeClients(local, s.now()); missing > 0 || !found {
		data, err := document.EncodeAccess(remoteDoc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode access ledger: %w", err)
		}
		if _, err := s.upload(ctx, document.AccessName, meta, found, data); err != nil {
			return nil, err
		}
		result.Pushed = true
		result.Created = !found
	}

	result.Clients = local.Clients

	s.log.WithFields(logrus.Fields{
		"op":      "access_sync",
		"merged":  result.Merged,
		"pushed":  result.Pushed,
		"clients": len(local.Clients),
	}).Info("access ledger synced")

	return result, nil
}

// Ledger appends this device's access requests to the local ledger.
type Ledger struct {
	store    AccessStore
	clientID string
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewLedger(store AccessStore, clientID string, log logrus.FieldLogger) *Ledger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{store: store, clientID: clientID, now: time.Now, log: log}
}

// RequestAccess records a pending access request for this device. No key
// exchange takes place; the entry waits in the ledger for another device.
func (l *Ledger) RequestAccess(ctx context.Context, name, publicKey string) (document.ClientRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return document.ClientRequest{}, errors.New("client name is required")
	}

	doc, err := l.store.LoadAccess(ctx)
	if err != nil {
		return document.ClientRequest{}, fmt.Errorf("failed to load access ledger: %w", err)
	}

	now := l.now()
	req := document.ClientRequest{
		LastUpdated:  document.FormatTimestamp(now),
		ClientID:     l.clientID,
		ClientName:   name,
		PublicKey:    publicKey,
		AccessStatus: document.AccessRequested,
	}
	if err := doc.AddClientRequest(req, now); err != nil {
		return document.ClientRequest{}, err
	}

	if err := l.store.SaveAccess(ctx, doc); err != nil {
		return document.ClientRequest{}, fmt.Errorf("failed to save access ledger: %w", err)
	}

	l.log.WithFields(logrus.Fields{"op": "access_request", "client_id": l.clientID}).Info("access requested")
	return req, nil
}

// Clients returns the ledger entries.
func (l *Ledger) Clients(ctx context.Context) ([]document.ClientRequest, error) {
	doc, err := l.store.LoadAccess(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load access ledger: %w", err)
	}
	return doc.Clients, nil
}
