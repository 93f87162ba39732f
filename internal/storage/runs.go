package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quarkus-qe/quarkus-utilities/internal/annotations"
)

// ErrRunNotFound is returned when a run ID is not in the history.
var ErrRunNotFound = errors.New("run not found")

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one stored analysis.
type Run struct {
	ID         string
	Repository string
	Lite       bool
	StartedAt  time.Time
	FinishedAt time.Time
	Branches   []BranchRecords
}

// BranchRecords are the records found on one branch, in scan order.
type BranchRecords struct {
	Branch  string
	Records []annotations.Record
}

// RunSummary describes a stored run without its records.
type RunSummary struct {
	ID         string
	Repository string
	Lite       bool
	StartedAt  time.Time
	FinishedAt time.Time
	// Counts maps branch name to record count.
	Counts map[string]int
}

// Total returns the number of records over all branches.
func (s RunSummary) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// RunStore reads and writes runs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a run store on db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// SaveRun stores a run and all of its records in one transaction.
func (s *RunStore) SaveRun(run Run) error {
	if run.ID == "" {
		return errors.New("run ID is required")
	}
	return s.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, repository, lite, pattern_version, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			run.Repository,
			boolToInt(run.Lite),
			annotations.PatternSetVersion,
			run.StartedAt.UTC().Format(timeLayout),
			run.FinishedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for _, br := range run.Branches {
			if _, err := tx.Exec(`
				INSERT INTO run_branches (run_id, branch, record_count) VALUES (?, ?, ?)
			`, run.ID, br.Branch, len(br.Records)); err != nil {
				return fmt.Errorf("failed to insert branch %s: %w", br.Branch, err)
			}

			stmt, err := tx.Prepare(`
				INSERT INTO disabled_tests (
					run_id, branch, ordinal, test_name, class_name, annotation_type,
					reason, issue_link, issue_closed, file_url, file_path, line
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`)
			if err != nil {
				return err
			}
			for i, rec := range br.Records {
				_, err := stmt.Exec(
					run.ID, br.Branch, i,
					rec.TestName, rec.ClassName, rec.AnnotationType,
					nullString(rec.Reason), nullString(rec.IssueLink),
					boolToInt(rec.IssueClosed),
					rec.FileURL, rec.FilePath, rec.Line,
				)
				if err != nil {
					_ = stmt.Close()
					return fmt.Errorf("failed to insert record %d on %s: %w", i, br.Branch, err)
				}
			}
			if err := stmt.Close(); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRuns returns the most recent runs first. An empty repository lists
// runs of every repository; limit <= 0 means no limit.
func (s *RunStore) ListRuns(repository string, limit int) ([]RunSummary, error) {
	query := `SELECT id, repository, lite, started_at, finished_at FROM runs`
	var args []any
	if repository != "" {
		query += ` WHERE repository = ?`
		args = append(args, repository)
	}
	query += ` ORDER BY started_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var summaries []RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range summaries {
		counts, err := s.branchCounts(summaries[i].ID)
		if err != nil {
			return nil, err
		}
		summaries[i].Counts = counts
	}
	return summaries, nil
}

// GetRun returns a run with all its records.
func (s *RunStore) GetRun(id string) (*Run, error) {
	row := s.db.conn.QueryRow(`
		SELECT id, repository, lite, started_at, finished_at FROM runs WHERE id = ?
	`, id)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:         summary.ID,
		Repository: summary.Repository,
		Lite:       summary.Lite,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}

	branches, err := s.branches(id)
	if err != nil {
		return nil, err
	}
	for _, branch := range branches {
		records, err := s.RunRecords(id, branch)
		if err != nil {
			return nil, err
		}
		run.Branches = append(run.Branches, BranchRecords{Branch: branch, Records: records})
	}
	return run, nil
}

// LatestRun returns the most recent run of repository.
func (s *RunStore) LatestRun(repository string) (*Run, error) {
	summaries, err := s.ListRuns(repository, 1)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: no runs for %s", ErrRunNotFound, repository)
	}
	return s.GetRun(summaries[0].ID)
}

// RunRecords returns the records of one branch of a run in scan order.
func (s *RunStore) RunRecords(id, branch string) ([]annotations.Record, error) {
	rows, err := s.db.conn.Query(`
		SELECT test_name, class_name, annotation_type, reason, issue_link,
		       issue_closed, file_url, file_path, line
		FROM disabled_tests
		WHERE run_id = ? AND branch = ?
		ORDER BY ordinal
	`, id, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []annotations.Record
	for rows.Next() {
		var (
			rec       annotations.Record
			reason    sql.NullString
			issueLink sql.NullString
			closed    int
		)
		if err := rows.Scan(
			&rec.TestName, &rec.ClassName, &rec.AnnotationType,
			&reason, &issueLink, &closed,
			&rec.FileURL, &rec.FilePath, &rec.Line,
		); err != nil {
			return nil, err
		}
		rec.Reason = reason.String
		rec.IssueLink = issueLink.String
		rec.IssueClosed = closed != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRun removes a run and its records.
func (s *RunStore) DeleteRun(id string) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM disabled_tests WHERE run_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM run_branches WHERE run_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil
	})
}

func (s *RunStore) branches(id string) ([]string, error) {
	rows, err := s.db.conn.Query(`SELECT branch FROM run_branches WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var branches []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (s *RunStore) branchCounts(id string) (map[string]int, error) {
	rows, err := s.db.conn.Query(`SELECT branch, record_count FROM run_branches WHERE run_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			b string
			n int
		)
		if err := rows.Scan(&b, &n); err != nil {
			return nil, err
		}
		counts[b] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var (
		s                 RunSummary
		lite              int
		started, finished string
	)
	if err := row.Scan(&s.ID, &s.Repository, &lite, &started, &finished); err != nil {
		return RunSummary{}, err
	}
	s.Lite = lite != 0
	var err error
	if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return RunSummary{}, fmt.Errorf("bad started_at %q: %w", started, err)
	}
	if s.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return RunSummary{}, fmt.Errorf("bad finished_at %q: %w", finished, err)
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
