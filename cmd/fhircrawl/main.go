package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/fhircrawl"
	fhirhttp "github.com/fwojciec/fhircrawl/http"
	fhirslog "github.com/fwojciec/fhircrawl/slog"
	"github.com/fwojciec/fhircrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	RunService fhircrawl.RunService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("fhircrawl"),
		kong.Description("Crawl every resource a FHIR server holds for a patient."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(YAMLConfig, DefaultConfigFile, "~/"+DefaultConfigFile),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'fhircrawl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if cli.DB != "" {
		m.DBPath = cli.DB
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set FHIRCRAWL_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.RunService = sqlite.NewRunService(m.DB)
	deps.Logger = fhirslog.NewLogger(stderr, cli.Verbose)
	deps.Runs = m.RunService
	deps.RunResults = func(runID string) fhircrawl.ResultCollector {
		return sqlite.NewResultCollector(m.DB, runID)
	}

	if strings.HasPrefix(kongCtx.Command(), "crawl") {
		var opts []fhirhttp.Option
		if cli.Crawl.Insecure {
			opts = append(opts, fhirhttp.WithInsecureSkipVerify())
		}
		if cli.Crawl.RequestTimeout > 0 {
			opts = append(opts, fhirhttp.WithTimeout(cli.Crawl.RequestTimeout))
		}
		fetcher := fhirslog.NewLoggingFetcher(fhirhttp.NewFetcher(opts...), deps.Logger)

		deps.Fetcher = fetcher
		deps.Seeds = fhirslog.NewLoggingSeedService(fhirhttp.NewSeedService(fetcher, cli.Crawl.Token), deps.Logger)
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("FHIRCRAWL_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "fhircrawl.db"
	}
	dir := filepath.Join(home, ".fhircrawl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "fhircrawl.db")
}
