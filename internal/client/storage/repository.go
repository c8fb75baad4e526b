package storage

import (
	"context"
	"errors"
	"time"
)

var ErrRunNotFound = errors.New("sync run not found")

// SyncRun summarizes one sync pass.
type SyncRun struct {
	ID                string    `json:"id" yaml:"id"`
	StartedAt         time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time `json:"finished_at" yaml:"finished_at"`
	Pushed            bool      `json:"pushed" yaml:"pushed"`
	LocalChanged      bool      `json:"local_changed" yaml:"local_changed"`
	RemoteNeedsUpdate bool      `json:"remote_needs_update" yaml:"remote_needs_update"`
	RemoteFileID      string    `json:"remote_file_id" yaml:"remote_file_id"`
	Error             string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// DecisionEntry is the journaled outcome of reconciling one record.
type DecisionEntry struct {
	ID              int64     `json:"id" yaml:"id"`
	RunID           string    `json:"run_id" yaml:"run_id"`
	RecordID        int64     `json:"record_id" yaml:"record_id"`
	RecordName      string    `json:"record_name" yaml:"record_name"`
	Action          string    `json:"action" yaml:"action"`
	LocalUpdated    string    `json:"local_updated" yaml:"local_updated"`
	IncomingUpdated string    `json:"incoming_updated" yaml:"incoming_updated"`
	DecidedAt       time.Time `json:"decided_at" yaml:"decided_at"`
}

// Journal records sync passes and reconciliation decisions
type Journal interface {
	// RecordDecisions stores the decisions of one reconciliation
	RecordDecisions(ctx context.Context, entries []*DecisionEntry) error

	// RecordRun stores a sync pass summary
	RecordRun(ctx context.Context, run *SyncRun) error

	// RecentDecisions returns the newest decisions first
	RecentDecisions(ctx context.Context, limit int) ([]*DecisionEntry, error)

	// LastRun returns the most recent sync pass
	LastRun(ctx context.Context) (*SyncRun, error)

	// Close closes the database connection
	Close() error
}
