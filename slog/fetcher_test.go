package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/fhircrawl"
	"github.com/fwojciec/fhircrawl/mock"
	fhirslog "github.com/fwojciec/fhircrawl/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with status, bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(_ context.Context, url, _ string) (*fhircrawl.Response, error) {
				return &fhircrawl.Response{URL: url, StatusCode: 200, Body: []byte(`{"resourceType":"Patient"}`)}, nil
			},
		}

		fetcher := fhirslog.NewLoggingFetcher(inner, debugLogger(&buf))
		resp, err := fetcher.Fetch(context.Background(), "https://fhir.example.com/api/Patient/1", "s3cret")

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		output := buf.String()
		assert.Contains(t, output, "fetch")
		assert.Contains(t, output, "url=https://fhir.example.com/api/Patient/1")
		assert.Contains(t, output, "status=200")
		assert.Contains(t, output, "bytes=26")
		assert.Contains(t, output, "duration=")
		assert.NotContains(t, output, "s3cret")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(_ context.Context, _, _ string) (*fhircrawl.Response, error) {
				return nil, errors.New("network error")
			},
		}

		fetcher := fhirslog.NewLoggingFetcher(inner, debugLogger(&buf))
		_, err := fetcher.Fetch(context.Background(), "https://fhir.example.com/api/Patient/1", "")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "fetch")
		assert.Contains(t, output, "err=\"network error\"")
	})

	t.Run("passes token to the wrapped fetcher", func(t *testing.T) {
		t.Parallel()

		var got string
		inner := &mock.Fetcher{
			FetchFn: func(_ context.Context, url, token string) (*fhircrawl.Response, error) {
				got = token
				return &fhircrawl.Response{URL: url, StatusCode: 200}, nil
			},
		}

		var buf bytes.Buffer
		_, err := fhirslog.NewLoggingFetcher(inner, debugLogger(&buf)).Fetch(context.Background(), "https://fhir.example.com/api/Patient/1", "s3cret")

		require.NoError(t, err)
		assert.Equal(t, "s3cret", got)
	})
}
