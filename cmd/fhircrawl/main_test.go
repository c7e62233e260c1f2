package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/fhircrawl"
	main "github.com/fwojciec/fhircrawl/cmd/fhircrawl"
	"github.com/fwojciec/fhircrawl/fs"
	"github.com/fwojciec/fhircrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const capabilityStatement = `{
  "resourceType": "CapabilityStatement",
  "fhirVersion": "4.0.1",
  "rest": [{
    "resource": [
      {"type": "Patient", "searchParam": [{"name": "_id"}]},
      {"type": "Condition", "searchParam": [{"name": "patient"}]}
    ]
  }]
}`

// fhirServer serves a patient with one condition. Requests without the
// expected bearer token are rejected.
func fhirServer(t *testing.T, brokenCondition bool) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/fhir+json")
		switch r.URL.RequestURI() {
		case "/metadata":
			fmt.Fprint(w, capabilityStatement)
		case "/Patient/123":
			fmt.Fprint(w, `{"resourceType":"Patient","id":"123"}`)
		case "/Patient?_id=123":
			fmt.Fprintf(w, `{"resourceType":"Bundle","entry":[{"fullUrl":"%s/Patient/123"}]}`, srv.URL)
		case "/Condition?patient=123":
			fmt.Fprintf(w, `{"resourceType":"Bundle","entry":[{"fullUrl":"%s/Condition/c1"}]}`, srv.URL)
		case "/Condition/c1":
			if brokenCondition {
				fmt.Fprint(w, `{"resourceType":"Observation","id":"c1"}`)
				return
			}
			fmt.Fprint(w, `{"resourceType":"Condition","id":"c1"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMain_Run_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("crawls a server and records the run", func(t *testing.T) {
		t.Parallel()

		srv := fhirServer(t, false)
		dir := t.TempDir()

		m := main.NewMain()
		m.DBPath = filepath.Join(dir, "test.db")
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{
			"crawl", srv.URL + "/",
			"--patient", "123",
			"--token", "s3cret",
			"--output", dir,
			"--retries", "0",
		}, stdout, stderr)

		require.NoError(t, err, stderr.String())
		assert.Contains(t, stdout.String(), "(R4, run ")
		assert.Contains(t, stdout.String(), "completed: 4 requests, 0 failures")
		assert.NotContains(t, stderr.String(), "s3cret")

		data, err := os.ReadFile(filepath.Join(dir, "patient-crawl-123", fs.ResultsFile))
		require.NoError(t, err)
		assert.Equal(t, 4, strings.Count(string(data), "\n"))

		db := sqlite.NewDB(m.DBPath)
		require.NoError(t, db.Open())
		defer db.Close()
		svc := sqlite.NewRunService(db)

		runs, err := svc.FindRuns(context.Background(), fhircrawl.RunFilter{})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "completed", runs[0].State)
		assert.Equal(t, 4, runs[0].Dispatched)

		results, err := svc.FindResults(context.Background(), fhircrawl.ResultFilter{RunID: runs[0].ID})
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("reports invalid payloads as failures", func(t *testing.T) {
		t.Parallel()

		srv := fhirServer(t, true)
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "test.db")

		m := main.NewMain()
		m.DBPath = dbPath
		stdout := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{
			"crawl", srv.URL + "/",
			"--patient", "123",
			"--token", "s3cret",
			"--output", dir,
			"--retries", "0",
		}, stdout, &bytes.Buffer{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 failures")
		assert.Contains(t, stdout.String(), "INVALID_PAYLOAD: 1")

		_, err = os.Stat(filepath.Join(dir, "patient-crawl-123", fs.FailuresDir))
		assert.NoError(t, err)

		// The failure is listed by a later invocation.
		m = main.NewMain()
		m.DBPath = dbPath
		stdout.Reset()

		require.NoError(t, m.Run(context.Background(), []string{"runs"}, stdout, &bytes.Buffer{}))
		runID := strings.Fields(stdout.String())[0]

		stdout.Reset()
		require.NoError(t, m.Run(context.Background(), []string{"failures", runID}, stdout, &bytes.Buffer{}))
		assert.Contains(t, stdout.String(), "INVALID_PAYLOAD")
		assert.Contains(t, stdout.String(), srv.URL+"/Condition/c1")
	})

	t.Run("fails when discovery is rejected", func(t *testing.T) {
		t.Parallel()

		srv := fhirServer(t, false)
		dir := t.TempDir()

		m := main.NewMain()
		m.DBPath = filepath.Join(dir, "test.db")
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{
			"crawl", srv.URL + "/",
			"--patient", "123",
			"--token", "wrong",
			"--output", dir,
		}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "HTTP 401")
	})
}
