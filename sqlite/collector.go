package sqlite

import (
	"context"
	"fmt"
	"sync"

	"github.com/fwojciec/fhircrawl"
)

// Ensure ResultCollector implements fhircrawl.ResultCollector at compile time.
var _ fhircrawl.ResultCollector = (*ResultCollector)(nil)

// DefaultBatchSize is the number of results buffered before they are written.
const DefaultBatchSize = 100

// ResultCollector stores the results of one run. Results are buffered and
// written in batches, each in its own transaction. The first write error is
// kept and returned by Done; later results are dropped.
type ResultCollector struct {
	db        *DB
	runID     string
	batchSize int

	mu      sync.Mutex
	pending []fhircrawl.Result
	err     error
}

// NewResultCollector creates a ResultCollector for the run with the given ID.
func NewResultCollector(db *DB, runID string) *ResultCollector {
	return &ResultCollector{db: db, runID: runID, batchSize: DefaultBatchSize}
}

// Init verifies that the run exists.
func (c *ResultCollector) Init() error {
	var n int
	err := c.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM runs WHERE id = ?", c.runID).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fhircrawl.Errorf(fhircrawl.ENOTFOUND, "run not found")
	}
	return nil
}

// Add buffers result and writes the buffer once it is full.
func (c *ResultCollector) Add(result fhircrawl.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return
	}
	c.pending = append(c.pending, result)
	if len(c.pending) >= c.batchSize {
		c.err = c.flush(context.Background())
	}
}

// Done writes any buffered results.
func (c *ResultCollector) Done() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err == nil {
		c.err = c.flush(context.Background())
	}
	if c.err != nil {
		return fmt.Errorf("save results: %w", c.err)
	}
	return nil
}

func (c *ResultCollector) flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, query, outcome, timestamp, duration_ms, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range c.pending {
		if _, err := stmt.ExecContext(ctx, c.runID, r.Query, r.Outcome.String(),
			formatTime(r.Timestamp), r.Duration.Milliseconds(), r.Message); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.pending = c.pending[:0]
	return nil
}
