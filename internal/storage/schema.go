package storage

import (
	"database/sql"
	"errors"
)

const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createRunsTable(tx); err != nil {
			return err
		}
		if err := createRunBranchesTable(tx); err != nil {
			return err
		}
		if err := createDisabledTestsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}
	if version == 0 {
		// file existed but was never initialized (e.g. an empty file)
		return db.initializeSchema()
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	return nil
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			repository TEXT NOT NULL,
			lite INTEGER NOT NULL DEFAULT 0,
			pattern_version INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_repository ON runs(repository, started_at)`)
	return err
}

func createRunBranchesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS run_branches (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			branch TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, branch)
		)
	`)
	return err
}

func createDisabledTestsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS disabled_tests (
			run_id TEXT NOT NULL,
			branch TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			test_name TEXT NOT NULL,
			class_name TEXT NOT NULL,
			annotation_type TEXT NOT NULL,
			reason TEXT,
			issue_link TEXT,
			issue_closed INTEGER NOT NULL DEFAULT 0,
			file_url TEXT NOT NULL,
			file_path TEXT NOT NULL,
			line INTEGER NOT NULL,
			PRIMARY KEY (run_id, branch, ordinal),
			FOREIGN KEY (run_id, branch) REFERENCES run_branches(run_id, branch) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_disabled_tests_issue ON disabled_tests(issue_link)`)
	return err
}
