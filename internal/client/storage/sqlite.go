package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Register SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// JournalFileName is the journal database inside the data folder.
const JournalFileName = "journal.db"

type SQLiteJournal struct {
	db *sql.DB
}

func scanDecision(scanner interface {
	Scan(dest ...any) error
}) (*DecisionEntry, error) {
	d := &DecisionEntry{}
	err := scanner.Scan(
		&d.ID, &d.RunID, &d.RecordID, &d.RecordName, &d.Action,
		&d.LocalUpdated, &d.IncomingUpdated, &d.DecidedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan decision: %w", err)
	}

	return d, nil
}

func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	// Open database with SQLite URI
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Verify connection
	if err = db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &SQLiteJournal{db: db}

	// Run migrations
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	ctx := context.Background()
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createSchemaMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var currentVersion int
	err = tx.QueryRowContext(ctx, getCurrentVersionSQL).Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Run migrations in order
	migrations := []struct {
		version int
		sql     []string
	}{
		{
			version: 1,
			sql: []string{
				createSyncRunsTableSQL,
				createSyncRunsStartedAtIndexSQL,
			},
		},
		{
			version: 2,
			sql: []string{
				createDecisionsTableSQL,
				createDecisionsRunIDIndexSQL,
				createDecisionsRecordIDIndexSQL,
			},
		},
	}

	for _, migration := range migrations {
		if currentVersion >= migration.version {
			continue
		}

		for _, statement := range migration.sql {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", migration.version, err)
			}
		}

		if _, err := tx.ExecContext(ctx, insertMigrationSQL, migration.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	return nil
}

func (j *SQLiteJournal) RecordDecisions(ctx context.Context, entries []*DecisionEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// nolint:errcheck // Rollback error is expected to fail after Commit
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO decisions (
			run_id, record_id, record_name, action,
			local_updated, incoming_updated, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare decision insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.DecidedAt.IsZero() {
			e.DecidedAt = time.Now()
		}

		result, err := stmt.ExecContext(ctx,
			e.RunID, e.RecordID, e.RecordName, e.Action,
			e.LocalUpdated, e.IncomingUpdated, e.DecidedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert decision for record %d: %w", e.RecordID, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get decision ID: %w", err)
		}
		e.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (j *SQLiteJournal) RecordRun(ctx context.Context, run *SyncRun) error {
	query := `
		INSERT INTO sync_runs (
			id, started_at, finished_at, pushed, local_changed,
			remote_needs_update, remote_file_id, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt, run.Pushed, run.LocalChanged,
		run.RemoteNeedsUpdate, run.RemoteFileID, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}

	return nil
}

func (j *SQLiteJournal) RecentDecisions(ctx context.Context, limit int) ([]*DecisionEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, run_id, record_id, record_name, action,
		       local_updated, incoming_updated, decided_at
		FROM decisions
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*DecisionEntry
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return decisions, nil
}

func (j *SQLiteJournal) LastRun(ctx context.Context) (*SyncRun, error) {
	query := `
		SELECT id, started_at, finished_at, pushed, local_changed,
		       remote_needs_update, remote_file_id, error
		FROM sync_runs
		ORDER BY rowid DESC
		LIMIT 1
	`

	run := &SyncRun{}
	err := j.db.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.Pushed, &run.LocalChanged,
		&run.RemoteNeedsUpdate, &run.RemoteFileID, &run.Error,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get last sync run: %w", err)
	}

	return run, nil
}

func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
