package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/fhircrawl"
	main "github.com/fwojciec/fhircrawl/cmd/fhircrawl"
	"github.com/fwojciec/fhircrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunsCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists runs with ID, state, counts and patient", func(t *testing.T) {
		t.Parallel()

		started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		runs := &mock.RunService{
			FindRunsFn: func(_ context.Context, _ fhircrawl.RunFilter) ([]*fhircrawl.Run, error) {
				return []*fhircrawl.Run{
					{
						ID:         "run-2",
						BaseURL:    "https://fhir.example.com/r4/",
						PatientID:  "123",
						State:      "timed_out",
						Dispatched: 42,
						Failures:   2,
						StartedAt:  started,
						FinishedAt: started.Add(3 * time.Second),
					},
					{
						ID:        "run-1",
						BaseURL:   "https://fhir.example.com/r4/",
						PatientID: "456",
						State:     "running",
						StartedAt: started.Add(-time.Hour),
					},
				}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Runs:   runs,
		}

		err := (&main.RunsCmd{}).Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, "run-2")
		assert.Contains(t, output, "timed_out")
		assert.Contains(t, output, "42 requests")
		assert.Contains(t, output, "2 failures")
		assert.Contains(t, output, "patient 123")
		assert.Contains(t, output, "run-1")
		assert.Contains(t, output, "running")
	})

	t.Run("passes patient and limit to the filter", func(t *testing.T) {
		t.Parallel()

		var got fhircrawl.RunFilter
		runs := &mock.RunService{
			FindRunsFn: func(_ context.Context, filter fhircrawl.RunFilter) ([]*fhircrawl.Run, error) {
				got = filter
				return nil, nil
			},
		}

		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: &bytes.Buffer{},
			Runs:   runs,
		}

		require.NoError(t, (&main.RunsCmd{Patient: "123", Limit: 5}).Run(deps))

		require.NotNil(t, got.PatientID)
		assert.Equal(t, "123", *got.PatientID)
		assert.Equal(t, 5, got.Limit)
	})

	t.Run("shows helpful message when no runs exist", func(t *testing.T) {
		t.Parallel()

		runs := &mock.RunService{
			FindRunsFn: func(_ context.Context, _ fhircrawl.RunFilter) ([]*fhircrawl.Run, error) {
				return []*fhircrawl.Run{}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Runs:   runs,
		}

		require.NoError(t, (&main.RunsCmd{}).Run(deps))

		assert.Contains(t, stdout.String(), "No runs")
	})

	t.Run("returns error when FindRuns fails", func(t *testing.T) {
		t.Parallel()

		runs := &mock.RunService{
			FindRunsFn: func(_ context.Context, _ fhircrawl.RunFilter) ([]*fhircrawl.Run, error) {
				return nil, errors.New("database error")
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Runs:   runs,
		}

		err := (&main.RunsCmd{}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "database error")
	})
}
