package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed coverage.sql
var schema string

// DB wraps the SQLite coverage database connection
type DB struct {
	conn *sql.DB
}

// Open opens or creates a coverage database, initializing the schema from the
// bundled SQL script when the coverage_results table is missing
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The database is often shared through a synced folder; wait rather than
	// fail when another machine holds the lock
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	exists, err := db.hasResultsTable()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if !exists {
		if _, err := conn.Exec(schema); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) hasResultsTable() (bool, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM sqlite_master
		WHERE type = 'table' AND name = 'coverage_results'`,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return count == 1, nil
}

// InsertResult archives one coverage measurement
func (db *DB) InsertResult(r *CoverageResult) error {
	_, err := db.conn.Exec(`
		INSERT INTO coverage_results (
			project, commit_hash, commit_summary, commit_date, data,
			platform, python_version, path_prefix, output
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Project, r.CommitHash, r.CommitSummary,
		r.CommitDate.UTC().Format(DateLayout), r.Data,
		r.Platform, r.RuntimeVersion, r.PathPrefix, r.Output,
	)
	if err != nil {
		return fmt.Errorf("failed to insert coverage result: %w", err)
	}
	return nil
}

// ListProjects lists projects that have archived results
func (db *DB) ListProjects() ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT project FROM coverage_results ORDER BY project`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// ListCommits lists distinct commits with results for a project, most
// recent commit date first
func (db *DB) ListCommits(project string) ([]*Commit, error) {
	rows, err := db.conn.Query(`
		SELECT
			commit_hash,
			MAX(commit_date) AS commit_date,
			MAX(commit_summary) AS commit_summary
		FROM coverage_results
		WHERE project = ?
		GROUP BY project, commit_hash
		ORDER BY MAX(commit_date) DESC`, project,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()

	var commits []*Commit
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.Hash, &c.Date, &c.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, &c)
	}
	return commits, rows.Err()
}

// ResultsForCommit returns every result for a project at a commit, oldest
// commit date first
func (db *DB) ResultsForCommit(project, commitHash string) ([]*CoverageResult, error) {
	rows, err := db.conn.Query(`
		SELECT
			project, commit_hash, commit_summary, commit_date, data,
			platform, python_version, path_prefix, COALESCE(output, '')
		FROM coverage_results
		WHERE project = ? AND commit_hash = ?
		ORDER BY commit_date ASC`, project, commitHash,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage results: %w", err)
	}
	defer rows.Close()

	var results []*CoverageResult
	for rows.Next() {
		var r CoverageResult
		var commitDate string

		err := rows.Scan(
			&r.Project, &r.CommitHash, &r.CommitSummary, &commitDate, &r.Data,
			&r.Platform, &r.RuntimeVersion, &r.PathPrefix, &r.Output,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coverage result: %w", err)
		}

		if r.CommitDate, err = ParseDate(commitDate); err != nil {
			return nil, fmt.Errorf("failed to scan coverage result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// CountResults counts rows for a project at a commit
func (db *DB) CountResults(project, commitHash string) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM coverage_results
		WHERE project = ? AND commit_hash = ?`, project, commitHash,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count coverage results: %w", err)
	}
	return count, nil
}

// ParseDate parses a stored commit date, tolerating fractional seconds
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05.999999999", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized commit date %q", s)
}

// runMigrations brings databases created by older releases up to date
func (db *DB) runMigrations() error {
	var outputExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM pragma_table_info('coverage_results')
		WHERE name = 'output'
	`).Scan(&outputExists)
	if err != nil {
		return fmt.Errorf("failed to check for output column: %w", err)
	}

	if !outputExists {
		if _, err := db.conn.Exec(`ALTER TABLE coverage_results ADD COLUMN output TEXT`); err != nil {
			return fmt.Errorf("failed to add output column: %w", err)
		}
	}

	return nil
}
