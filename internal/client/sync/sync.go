package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/remote"
	"github.com/ritchy/BytePass/internal/client/storage"
)

const defaultTimeout = 30 * time.Second

// KeyResolver supplies the data key for sealed remote payloads. Current
// only reads a stored key; Resolve may generate and persist one.
type KeyResolver interface {
	Current(ctx context.Context) ([]byte, error)
	Resolve(ctx context.Context) ([]byte, error)
}

// Deps are the collaborators of a Syncer. Keys, Access, Journal and Config
// are optional.
type Deps struct {
	Engine  *Engine
	Remote  remote.FileStore
	Auth    remote.Authenticator
	Keys    KeyResolver
	Access  AccessStore
	Journal storage.Journal
	Config  *config.Config
}

// Options configures how sync should behave.
type Options struct {
	// EncryptRemote seals pushed accounts with the data key
	EncryptRemote bool

	// Timeout bounds each remote call
	Timeout time.Duration

	// ProgressCallback is called to report sync progress (optional)
	ProgressCallback func(message string)
}

// Result contains statistics and information about a sync operation.
type Result struct {
	RunID string

	// Pushed is true when the merged collection was written to the remote
	Pushed       bool
	RemoteFileID string
	RemoteFound  bool
	RemoteSealed bool

	LocalChanged      bool
	RemoteNeedsUpdate bool
	Decisions         []Decision

	PullDuration  time.Duration
	PushDuration  time.Duration
	TotalDuration time.Duration
	StartedAt     time.Time
}

// Counts tallies decisions per action.
func (r *Result) Counts() map[Action]int {
	return Outcome{Decisions: r.Decisions}.Counts()
}

// Syncer runs sync passes against one remote store. At most one pass runs at
// a time; overlapping calls fail with ErrSyncInProgress.
type Syncer struct {
	mu sync.Mutex

	engine  *Engine
	remote  remote.FileStore
	auth    remote.Authenticator
	keys    KeyResolver
	access  AccessStore
	journal storage.Journal
	cfg     *config.Config
	opts    Options

	now func() time.Time
	log logrus.FieldLogger
}

func NewSyncer(deps Deps, opts Options, log logrus.FieldLogger) (*Syncer, error) {
	if deps.Engine == nil || deps.Remote == nil || deps.Auth == nil {
		return nil, errors.New("sync requires an engine, a remote store and an authenticator")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Syncer{
		engine:  deps.Engine,
		remote:  deps.Remote,
		auth:    deps.Auth,
		keys:    deps.Keys,
		access:  deps.Access,
		journal: deps.Journal,
		cfg:     deps.Config,
		opts:    opts,
		now:     time.Now,
		log:     log,
	}, nil
}

// Sync performs one pass:
// 1. Pull the remote accounts file (absent means empty)
// 2. Reconcile it into the local store, persisting when local changed
// 3. Push the merged collection when the remote is stale or missing
//
// A failed pull leaves local state untouched. A failed push keeps the
// reconciled local state and returns a *RemoteError.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	result := &Result{RunID: uuid.NewString(), StartedAt: s.now()}
	err := s.run(ctx, result)
	result.TotalDuration = s.now().Sub(result.StartedAt)

	s.recordRun(ctx, result, err)

	if err != nil {
		return result, err
	}

	if s.cfg != nil && s.cfg.ConfigPath != "" {
		if err := UpdateLastSyncAt(s.cfg, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
			s.log.Warnf("Warning: failed to update last_sync_at: %v", err)
		}
	}

	s.reportProgress(fmt.Sprintf("Sync complete (%.2fs total)", result.TotalDuration.Seconds()))
	return result, nil
}

func (s *Syncer) run(ctx context.Context, result *Result) error {
	if !s.auth.IsSignedIn(ctx) {
		return s.remoteErr("auth", ErrNotSignedIn)
	}

	s.reportProgress("Pulling accounts from remote...")
	pullStart := s.now()

	p, err := s.pull(ctx)
	result.PullDuration = s.now().Sub(pullStart)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	result.RemoteFound = p.found
	result.RemoteSealed = p.sealed
	result.RemoteFileID = p.meta.ID

	out, err := s.engine.reconcile(ctx, result.RunID, p.doc)
	if err != nil {
		return err
	}
	result.LocalChanged = out.LocalChanged
	result.RemoteNeedsUpdate = out.RemoteNeedsUpdate
	result.Decisions = out.Decisions

	s.reportProgress(fmt.Sprintf("Pull complete (%.2fs, %d record(s) examined)",
		result.PullDuration.Seconds(), len(out.Decisions)))

	if !out.RemoteNeedsUpdate && p.found {
		return nil
	}

	s.reportProgress("Pushing accounts to remote...")
	pushStart := s.now()

	fileID, err := s.push(ctx, p, out.Merged)
	result.PushDuration = s.now().Sub(pushStart)
	if err != nil {
		return err
	}
	result.Pushed = true
	result.RemoteFileID = fileID

	s.reportProgress(fmt.Sprintf("Push complete (%.2fs)", result.PushDuration.Seconds()))
	return nil
}

func (s *Syncer) reportProgress(msg string) {
	if s.opts.ProgressCallback != nil {
		s.opts.ProgressCallback(msg)
		return
	}
	s.log.Info(msg)
}

func (s *Syncer) recordRun(ctx context.Context, result *Result, runErr error) {
	if s.journal == nil {
		return
	}

	run := &storage.SyncRun{
		ID:                result.RunID,
		StartedAt:         result.StartedAt.UTC(),
		FinishedAt:        result.StartedAt.Add(result.TotalDuration).UTC(),
		Pushed:            result.Pushed,
		LocalChanged:      result.LocalChanged,
		RemoteNeedsUpdate: result.RemoteNeedsUpdate,
		RemoteFileID:      result.RemoteFileID,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := s.journal.RecordRun(ctx, run); err != nil {
		s.log.WithFields(logrus.Fields{"op": "journal", "error": err}).Warn("failed to record sync run")
	}
}

// SyncStatus is the synchronization state shown without performing a sync.
type SyncStatus struct {
	ClientID        string           `json:"client_id" yaml:"client_id"`
	Backend         string           `json:"backend" yaml:"backend"`
	LastSyncTime    *time.Time       `json:"last_sync_time,omitempty" yaml:"last_sync_time,omitempty"`
	LastSyncTimeStr string           `json:"-" yaml:"-"`
	LastRun         *storage.SyncRun `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	LocalUpdated    *time.Time       `json:"local_updated,omitempty" yaml:"local_updated,omitempty"`
	NeedsSyncReason string           `json:"needs_sync_reason,omitempty" yaml:"needs_sync_reason,omitempty"`
	Records         int              `json:"records" yaml:"records"`
}

// GetSyncStatusInfo returns detailed information about the current sync state.
// journal may be nil.
func GetSyncStatusInfo(ctx context.Context, cfg *config.Config, journal storage.Journal, settings document.SettingsDocument, local document.AccountsDocument) (*SyncStatus, error) {
	status := &SyncStatus{
		ClientID: settings.ClientAccessID,
		Backend:  cfg.Remote.Backend,
		Records:  len(local.Accounts),
	}

	if cfg.LastSyncAt != "" {
		if t, err := time.Parse(time.RFC3339, cfg.LastSyncAt); err == nil {
			status.LastSyncTime = &t
			status.LastSyncTimeStr = t.Local().Format("2006-01-02 15:04:05")
		}
	}

	if journal != nil {
		run, err := journal.LastRun(ctx)
		switch {
		case errors.Is(err, storage.ErrRunNotFound):
		case err != nil:
			return nil, fmt.Errorf("failed to read last sync run: %w", err)
		default:
			status.LastRun = run
		}
	}

	if t, err := document.ParseCollectionStamp(local.LastUpdated); err == nil {
		status.LocalUpdated = &t
	}

	// Determine if sync is needed and why
	switch {
	case status.LastSyncTime == nil:
		status.NeedsSyncReason = "never synced"
	case status.LastRun != nil && status.LastRun.Error != "":
		status.NeedsSyncReason = "last sync failed: " + status.LastRun.Error
	case status.LastRun != nil && status.LastRun.RemoteNeedsUpdate && !status.LastRun.Pushed:
		status.NeedsSyncReason = "remote is behind local"
	case status.LocalUpdated != nil && status.LocalUpdated.After(*status.LastSyncTime):
		status.NeedsSyncReason = "local changes since last sync"
	case time.Since(*status.LastSyncTime) > 1*time.Hour:
		status.NeedsSyncReason = "last sync was more than 1 hour ago"
	}

	return status, nil
}
