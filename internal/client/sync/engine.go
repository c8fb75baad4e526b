package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/storage"
	"github.com/ritchy/BytePass/internal/client/vault"
)

// AccountsStore persists the accounts collection.
type AccountsStore interface {
	LoadAccounts(ctx context.Context) (document.AccountsDocument, error)
	SaveAccounts(ctx context.Context, doc document.AccountsDocument) error
}

// Engine applies reconciliation results to the in-memory store and disk.
type Engine struct {
	store   *vault.Store
	files   AccountsStore
	journal storage.Journal

	now func() time.Time
	log logrus.FieldLogger
}

// NewEngine binds a store to its persistence. journal may be nil.
func NewEngine(store *vault.Store, files AccountsStore, journal storage.Journal, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		store:   store,
		files:   files,
		journal: journal,
		now:     time.Now,
		log:     log,
	}
}

// Store returns the in-memory collection the engine updates.
func (e *Engine) Store() *vault.Store {
	return e.store
}

// Reconcile merges incoming into the store. When the local collection
// changed it is persisted before the store is updated, so memory never holds
// state that failed to reach disk.
func (e *Engine) Reconcile(ctx context.Context, incoming document.AccountsDocument) (Outcome, error) {
	return e.reconcile(ctx, uuid.NewString(), incoming)
}

func (e *Engine) reconcile(ctx context.Context, runID string, incoming document.AccountsDocument) (Outcome, error) {
	local := e.store.Snapshot()
	incoming, dropped := e.dropInvalid(local, incoming)

	out := Reconcile(local, incoming, e.log)
	out.Decisions = append(withoutLocalOnly(out.Decisions, dropped), dropped...)

	if out.LocalChanged {
		out.Merged.Stamp(e.now())
		if err := e.files.SaveAccounts(ctx, out.Merged); err != nil {
			return Outcome{}, fmt.Errorf("failed to persist reconciled accounts: %w", err)
		}
		e.store.Load(out.Merged)
	}

	e.log.WithFields(logrus.Fields{
		"op":                  "reconcile",
		"run_id":              runID,
		"local_changed":       out.LocalChanged,
		"remote_needs_update": out.RemoteNeedsUpdate,
		"decisions":           len(out.Decisions),
	}).Debug("reconciled incoming accounts")

	e.record(ctx, runID, out.Decisions)

	return out, nil
}

// dropInvalid removes incoming records that could never be persisted. When
// the id exists locally the local copy wins and is pushed over the invalid
// remote one, recorded as kept_local; otherwise the record is skipped.
func (e *Engine) dropInvalid(local, incoming document.AccountsDocument) (document.AccountsDocument, []Decision) {
	var dropped []Decision
	kept := make([]document.Account, 0, len(incoming.Accounts))

	for _, a := range incoming.Accounts {
		if a.Valid() {
			kept = append(kept, a)
			continue
		}
		e.log.WithFields(logrus.Fields{"op": "reconcile", "id": a.ID}).Warn("incoming record has no usable name, skipping")

		d := Decision{
			ID:              a.ID,
			Name:            a.Name,
			Action:          ActionSkipped,
			IncomingUpdated: a.LastUpdated,
		}
		if i := indexOf(a.ID, local.Accounts); i >= 0 {
			d.Name = local.Accounts[i].Name
			d.Action = ActionKeptLocal
			d.LocalUpdated = local.Accounts[i].LastUpdated
		}
		dropped = append(dropped, d)
	}

	incoming.Accounts = kept
	return incoming, dropped
}

// withoutLocalOnly drops the local_only decisions already covered by a
// kept_local decision for an invalid incoming record.
func withoutLocalOnly(decisions, dropped []Decision) []Decision {
	covered := make(map[int64]bool, len(dropped))
	for _, d := range dropped {
		if d.Action == ActionKeptLocal {
			covered[d.ID] = true
		}
	}
	if len(covered) == 0 {
		return decisions
	}

	out := decisions[:0:0]
	for _, d := range decisions {
		if d.Action == ActionLocalOnly && covered[d.ID] {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (e *Engine) record(ctx context.Context, runID string, decisions []Decision) {
	if e.journal == nil || len(decisions) == 0 {
		return
	}

	decidedAt := e.now().UTC()
	entries := make([]*storage.DecisionEntry, 0, len(decisions))
	for _, d := range decisions {
		entries = append(entries, &storage.DecisionEntry{
			RunID:           runID,
			RecordID:        d.ID,
			RecordName:      d.Name,
			Action:          string(d.Action),
			LocalUpdated:    d.LocalUpdated,
			IncomingUpdated: d.IncomingUpdated,
			DecidedAt:       decidedAt,
		})
	}

	if err := e.journal.RecordDecisions(ctx, entries); err != nil {
		e.log.WithFields(logrus.Fields{"op": "journal", "error": err}).Warn("failed to record reconciliation decisions")
	}
}
