// Package store persists approval workflows in PostgreSQL: one row per job,
// an append-only step log, and a claim query that lets detached workers pick
// up queued jobs safely.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/solarops/bua/internal/workflow"
)

// DBPool abstracts the pgxpool.Pool so tests can substitute a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS approval_jobs (
	id           TEXT PRIMARY KEY,
	project_id   TEXT NOT NULL,
	state        TEXT NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	request      JSONB NOT NULL,
	result       JSONB,
	submitted_at TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS approval_steps (
	job_id      TEXT NOT NULL REFERENCES approval_jobs(id),
	step        TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS approval_jobs_state_idx ON approval_jobs (state, submitted_at);
`

// JobStore is the PostgreSQL implementation of workflow.Recorder plus the
// read and claim queries the CLI and workers need.
type JobStore struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*JobStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &JobStore{pool: pool, log: logger.Named("job_store")}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateJob inserts a freshly submitted workflow.
func (s *JobStore) CreateJob(ctx context.Context, status workflow.JobStatus, req workflow.ApprovalRequest) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO approval_jobs (id, project_id, state, reason, request, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		status.ID, status.ProjectID, string(status.State), status.Reason, reqJSON, status.SubmittedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", status.ID, err)
	}
	return nil
}

// UpdateJob writes the job's current state, reason, and result.
func (s *JobStore) UpdateJob(ctx context.Context, status workflow.JobStatus) error {
	var resultJSON []byte
	if status.Result != nil {
		var err error
		resultJSON, err = json.Marshal(status.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	var finishedAt interface{}
	if !status.FinishedAt.IsZero() {
		finishedAt = status.FinishedAt.UTC()
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE approval_jobs
		SET state = $2, reason = $3, result = $4, finished_at = $5
		WHERE id = $1`,
		status.ID, string(status.State), status.Reason, resultJSON, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", status.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found", status.ID)
	}
	return nil
}

// AppendSteps bulk-inserts step records for a job.
func (s *JobStore) AppendSteps(ctx context.Context, id string, steps []workflow.StepRecord) error {
	if len(steps) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(steps))
	for i, st := range steps {
		rows[i] = []interface{}{id, st.Step, string(st.Status), st.Detail, st.At.UTC()}
	}

	copied, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"approval_steps"},
		[]string{"job_id", "step", "status", "detail", "recorded_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy steps for job %s: %w", id, err)
	}
	if int(copied) != len(steps) {
		return fmt.Errorf("mismatch in copied step count: expected %d, got %d", len(steps), copied)
	}
	return nil
}

// GetJob loads one job by id.
func (s *JobStore) GetJob(ctx context.Context, id string) (*workflow.JobStatus, error) {
	var (
		status     workflow.JobStatus
		state      string
		resultJSON []byte
		finishedAt *time.Time
	)

	row := s.pool.QueryRow(ctx, `
		SELECT id, project_id, state, reason, result, submitted_at, finished_at
		FROM approval_jobs WHERE id = $1`, id)
	err := row.Scan(&status.ID, &status.ProjectID, &state, &status.Reason,
		&resultJSON, &status.SubmittedAt, &finishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	status.State = workflow.JobState(state)
	if finishedAt != nil {
		status.FinishedAt = *finishedAt
	}
	if len(resultJSON) > 0 {
		var result workflow.Result
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to decode result for job %s: %w", id, err)
		}
		status.Result = &result
	}
	return &status, nil
}

// GetSteps loads the step log of a job in recording order.
func (s *JobStore) GetSteps(ctx context.Context, id string) ([]workflow.StepRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT step, status, detail, recorded_at
		FROM approval_steps WHERE job_id = $1
		ORDER BY recorded_at ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps for job %s: %w", id, err)
	}
	defer rows.Close()

	var steps []workflow.StepRecord
	for rows.Next() {
		var (
			st     workflow.StepRecord
			status string
		)
		if err := rows.Scan(&st.Step, &status, &st.Detail, &st.At); err != nil {
			return nil, fmt.Errorf("failed to scan step row: %w", err)
		}
		st.Status = workflow.StepStatus(status)
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during step iteration: %w", err)
	}
	return steps, nil
}

// ClaimNextQueued atomically moves the oldest queued job to running and
// returns it with its original request. It returns nil when the queue is
// empty; concurrent workers never claim the same job.
func (s *JobStore) ClaimNextQueued(ctx context.Context) (*QueuedJob, error) {
	var (
		q       QueuedJob
		reqJSON []byte
	)

	row := s.pool.QueryRow(ctx, `
		UPDATE approval_jobs
		SET state = 'running'
		WHERE id = (
			SELECT id FROM approval_jobs
			WHERE state = 'queued'
			ORDER BY submitted_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, request`)
	err := row.Scan(&q.ID, &reqJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim queued job: %w", err)
	}

	if err := json.Unmarshal(reqJSON, &q.Request); err != nil {
		return nil, fmt.Errorf("failed to decode request for job %s: %w", q.ID, err)
	}
	return &q, nil
}

// QueuedJob is a claimed job handed to a worker.
type QueuedJob struct {
	ID      string
	Request workflow.ApprovalRequest
}
