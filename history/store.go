// Package history provides a SQLite ledger of submitted smart edits.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Status is the lifecycle state of a job.
type Status string

const (
	StatusCreated  Status = "created"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// KindSmartEdit marks jobs created by a masked edit submission.
const KindSmartEdit = "smart_edit"

// ErrNotFound is returned when a job id does not exist.
var ErrNotFound = errors.New("job not found")

// Job is one recorded submission.
type Job struct {
	ID          int64
	OrgID       int
	Kind        string
	Status      Status
	SourceURI   string
	Instruction string
	MaskBytes   int
	ImageURL    string
	Caption     string
	Facts       []string
	CTA         string
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Output is what a completed job produced.
type Output struct {
	ImageURL string
	Caption  string
	Facts    []string
	CTA      string
}

// Store persists jobs in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the job ledger at path and creates the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create records a new job in the created state and returns its id.
func (s *Store) Create(ctx context.Context, job Job) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	kind := strings.TrimSpace(job.Kind)
	if kind == "" {
		kind = KindSmartEdit
	}
	now := toMillis(s.now())

	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO jobs (
		   org_id, kind, status, source_uri, instruction, mask_bytes, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.OrgID,
		kind,
		string(StatusCreated),
		job.SourceURI,
		job.Instruction,
		job.MaskBytes,
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("create job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create job: %w", err)
	}
	return id, nil
}

// Complete stores the output of a job and marks it complete.
func (s *Store) Complete(ctx context.Context, id int64, out Output) error {
	facts := out.Facts
	if facts == nil {
		facts = []string{}
	}
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return fmt.Errorf("encode facts: %w", err)
	}
	return s.update(ctx, id,
		`UPDATE jobs
		    SET status = ?, image_url = ?, caption = ?, facts = ?, cta = ?, error = '', updated_at = ?
		  WHERE id = ?`,
		string(StatusComplete), out.ImageURL, out.Caption, string(factsJSON), out.CTA, toMillis(s.now()), id,
	)
}

// Fail marks a job failed with the given reason.
func (s *Store) Fail(ctx context.Context, id int64, reason string) error {
	return s.update(ctx, id,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(StatusFailed), reason, toMillis(s.now()), id,
	)
}

func (s *Store) update(ctx context.Context, id int64, query string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const jobColumns = `id, org_id, kind, status, source_uri, instruction, mask_bytes,
        image_url, caption, facts, cta, error, created_at, updated_at`

// Get returns one job by id.
func (s *Store) Get(ctx context.Context, id int64) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	if s == nil || s.sqlDB == nil {
		return Job{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns the most recent jobs of an org, newest first.
func (s *Store) List(ctx context.Context, orgID, limit int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+jobColumns+`
		   FROM jobs
		  WHERE org_id = ?
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		orgID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job       Job
		status    string
		facts     string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&job.ID,
		&job.OrgID,
		&job.Kind,
		&status,
		&job.SourceURI,
		&job.Instruction,
		&job.MaskBytes,
		&job.ImageURL,
		&job.Caption,
		&facts,
		&job.CTA,
		&job.Error,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return Job{}, err
	}
	if err := json.Unmarshal([]byte(facts), &job.Facts); err != nil {
		return Job{}, fmt.Errorf("decode facts: %w", err)
	}
	job.Status = Status(status)
	job.CreatedAt = fromMillis(createdAt)
	job.UpdatedAt = fromMillis(updatedAt)
	return job, nil
}
