// Package fs provides file-based storage for crawl results.
package fs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/fhircrawl"
	"github.com/fwojciec/fhircrawl/crawl"
)

// ResultsFile is the name of the JSON lines file holding every result.
const ResultsFile = "results.jsonl"

// FailuresDir is the directory holding one file per failed result.
const FailuresDir = "failures"

// URLToPath converts a request URL to a relative file path.
// Example: https://example.com/api/Patient/123 → api/Patient/123.txt
// Searches are named after a digest of their query string:
// https://example.com/api/Condition?patient=1 → api/Condition/search-<hash>.txt
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		path = "index"
	}
	if u.RawQuery != "" {
		path += "/search-" + crawl.ComputeHash(u.RawQuery)
	}
	return path + ".txt", nil
}

// FormatResult formats a failed result as a small report.
func FormatResult(r fhircrawl.Result) string {
	var b strings.Builder
	b.WriteString("query: ")
	b.WriteString(r.Query)
	b.WriteString("\noutcome: ")
	b.WriteString(r.Outcome.String())
	b.WriteString("\ntimestamp: ")
	b.WriteString(r.Timestamp.UTC().Format(time.RFC3339Nano))
	b.WriteString("\nduration: ")
	b.WriteString(r.Duration.String())
	b.WriteString("\n")
	if r.Message != "" {
		b.WriteString("\n")
		b.WriteString(r.Message)
		b.WriteString("\n")
	}
	return b.String()
}

type resultLine struct {
	Query      string    `json:"query"`
	Outcome    string    `json:"outcome"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"durationMs"`
	Message    string    `json:"message,omitempty"`
}

// Ensure Collector implements fhircrawl.ResultCollector at compile time.
var _ fhircrawl.ResultCollector = (*Collector)(nil)

// Collector writes crawl results to a directory with atomic update semantics.
// Results are written to baseDir/name.tmp and moved to baseDir/name by Done,
// replacing the results of any previous crawl.
type Collector struct {
	baseDir string
	name    string

	mu    sync.Mutex
	file  *os.File
	enc   *json.Encoder
	err   error
	files map[string]struct{}
}

// NewCollector creates a new Collector.
func NewCollector(baseDir, name string) *Collector {
	return &Collector{
		baseDir: baseDir,
		name:    name,
	}
}

func (c *Collector) tempDir() string {
	return filepath.Join(c.baseDir, c.name+".tmp")
}

func (c *Collector) finalDir() string {
	return filepath.Join(c.baseDir, c.name)
}

// Init creates the temporary output directory and the results file.
func (c *Collector) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.tempDir()); err != nil {
		return err
	}
	if err := os.MkdirAll(c.tempDir(), 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(c.tempDir(), ResultsFile))
	if err != nil {
		return err
	}
	c.file = f
	c.enc = json.NewEncoder(f)
	c.files = make(map[string]struct{})
	return nil
}

// Add appends result to the results file and writes a report for failures.
// The first write error is kept and returned by Done.
func (c *Collector) Add(result fhircrawl.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return
	}
	if c.enc == nil {
		c.err = fhircrawl.Errorf(fhircrawl.ESTATE, "collector not initialized")
		return
	}

	c.err = c.enc.Encode(resultLine{
		Query:      result.Query,
		Outcome:    result.Outcome.String(),
		Timestamp:  result.Timestamp.UTC(),
		DurationMS: result.Duration.Milliseconds(),
		Message:    result.Message,
	})
	if c.err == nil && result.Outcome.Failed() {
		c.err = c.writeFailure(result)
	}
}

func (c *Collector) writeFailure(result fhircrawl.Result) error {
	relPath, err := URLToPath(result.Query)
	if err != nil {
		// Unparseable queries still get a report.
		relPath = "invalid/" + crawl.ComputeHash(result.Query) + ".txt"
	}

	// Distinct URLs can map to the same path, e.g. with and without a trailing slash.
	if _, taken := c.files[relPath]; taken {
		relPath = strings.TrimSuffix(relPath, ".txt") + ".url-" + crawl.ComputeHash(result.Query) + ".txt"
	}
	c.files[relPath] = struct{}{}

	fullPath := filepath.Join(c.tempDir(), FailuresDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(FormatResult(result)), 0644)
}

// Done closes the results file and moves the output into place. If any write
// failed the temporary directory is removed and the error returned.
func (c *Collector) Done() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file != nil {
		if err := c.file.Close(); err != nil && c.err == nil {
			c.err = err
		}
		c.file = nil
		c.enc = nil
	}
	if c.err != nil {
		_ = c.abort()
		return fmt.Errorf("write results: %w", c.err)
	}
	return c.commit()
}

func (c *Collector) commit() error {
	if err := os.RemoveAll(c.finalDir()); err != nil {
		return err
	}
	return os.Rename(c.tempDir(), c.finalDir())
}

func (c *Collector) abort() error {
	return os.RemoveAll(c.tempDir())
}
