package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/fhircrawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ fhircrawl.RunService = (*RunService)(nil)

// RunStateRunning is the state of a run that has not finished yet.
const RunStateRunning = "running"

// RunService implements fhircrawl.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun records the start of a crawl with a generated ID.
func (s *RunService) CreateRun(ctx context.Context, run *fhircrawl.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	run.StartedAt = time.Now().UTC()
	run.FinishedAt = time.Time{}
	if run.State == "" {
		run.State = RunStateRunning
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, base_url, patient_id, state, dispatched, failures, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.BaseURL, run.PatientID, run.State, run.Dispatched, run.Failures,
		formatTime(run.StartedAt), formatTime(run.FinishedAt))

	return err
}

// FinishRun records how a crawl ended.
func (s *RunService) FinishRun(ctx context.Context, id string, upd fhircrawl.RunUpdate) (*fhircrawl.Run, error) {
	run, err := s.FindRunByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.State == "" {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "run state required")
	}

	run.State = upd.State
	run.Dispatched = upd.Dispatched
	run.Failures = upd.Failures
	run.FinishedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE runs
		SET state = ?, dispatched = ?, failures = ?, finished_at = ?
		WHERE id = ?
	`, run.State, run.Dispatched, run.Failures, formatTime(run.FinishedAt), id)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*fhircrawl.Run, error) {
	runs, err := s.FindRuns(ctx, fhircrawl.RunFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fhircrawl.Errorf(fhircrawl.ENOTFOUND, "run not found")
	}
	return runs[0], nil
}

// FindRuns retrieves runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter fhircrawl.RunFilter) ([]*fhircrawl.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, base_url, patient_id, state, dispatched, failures, started_at, finished_at FROM runs WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.PatientID != nil {
		query.WriteString(" AND patient_id = ?")
		args = append(args, *filter.PatientID)
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*fhircrawl.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(rows *sql.Rows) (*fhircrawl.Run, error) {
	var run fhircrawl.Run
	var startedAt, finishedAt string

	if err := rows.Scan(&run.ID, &run.BaseURL, &run.PatientID, &run.State, &run.Dispatched, &run.Failures,
		&startedAt, &finishedAt); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseOptionalRFC3339(finishedAt, "finished_at"); err != nil {
		return nil, err
	}
	return &run, nil
}

// FindResults retrieves the results recorded for a run in arrival order.
func (s *RunService) FindResults(ctx context.Context, filter fhircrawl.ResultFilter) ([]*fhircrawl.Result, error) {
	if filter.RunID == "" {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "run id required")
	}

	var query strings.Builder
	args := []any{filter.RunID}

	query.WriteString("SELECT query, outcome, timestamp, duration_ms, message FROM results WHERE run_id = ?")
	if filter.FailedOnly {
		query.WriteString(" AND outcome != ?")
		args = append(args, fhircrawl.OutcomeOK.String())
	}
	query.WriteString(" ORDER BY id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*fhircrawl.Result
	for rows.Next() {
		var r fhircrawl.Result
		var outcome, timestamp string
		var durationMS int64

		if err := rows.Scan(&r.Query, &outcome, &timestamp, &durationMS, &r.Message); err != nil {
			return nil, err
		}
		if r.Outcome, err = fhircrawl.ParseOutcome(outcome); err != nil {
			return nil, err
		}
		if r.Timestamp, err = parseRFC3339(timestamp, "timestamp"); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, &r)
	}

	return results, rows.Err()
}
