package storage

// Schema definitions for the SQLite sync journal

const (
	// Schema version for migrations
	CurrentSchemaVersion = 2

	createSyncRunsTableSQL = `
		CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			pushed BOOLEAN NOT NULL DEFAULT 0,
			local_changed BOOLEAN NOT NULL DEFAULT 0,
			remote_needs_update BOOLEAN NOT NULL DEFAULT 0,
			remote_file_id TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT ''
		);
	`

	createDecisionsTableSQL = `
		CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			record_id INTEGER NOT NULL,
			record_name TEXT NOT NULL,
			action TEXT NOT NULL,
			local_updated TEXT NOT NULL DEFAULT '',
			incoming_updated TEXT NOT NULL DEFAULT '',
			decided_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	createSchemaMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	// Index creation SQL statements
	createSyncRunsStartedAtIndexSQL = `
		CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
	`

	createDecisionsRunIDIndexSQL = `
		CREATE INDEX IF NOT EXISTS idx_decisions_run_id ON decisions(run_id);
	`

	createDecisionsRecordIDIndexSQL = `
		CREATE INDEX IF NOT EXISTS idx_decisions_record_id ON decisions(record_id);
	`

	// Schema migration queries
	insertMigrationSQL = `
		INSERT INTO schema_migrations (version) VALUES (?);
	`

	getCurrentVersionSQL = `
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations;
	`
)
