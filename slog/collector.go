package slog

import (
	"log/slog"

	"github.com/fwojciec/fhircrawl"
)

// Ensure LoggingCollector implements fhircrawl.ResultCollector.
var _ fhircrawl.ResultCollector = (*LoggingCollector)(nil)

// LoggingCollector logs every result before forwarding it. Failures are
// logged at warn level, successes at debug level.
type LoggingCollector struct {
	next   fhircrawl.ResultCollector
	logger *slog.Logger
}

// NewLoggingCollector creates a new LoggingCollector. next may be nil.
func NewLoggingCollector(next fhircrawl.ResultCollector, logger *slog.Logger) *LoggingCollector {
	return &LoggingCollector{next: next, logger: logger}
}

// Init delegates to the wrapped collector.
func (c *LoggingCollector) Init() error {
	if c.next == nil {
		return nil
	}
	return c.next.Init()
}

// Add logs result and forwards it.
func (c *LoggingCollector) Add(result fhircrawl.Result) {
	attrs := []any{
		"query", result.Query,
		"outcome", result.Outcome.String(),
		"duration", result.Duration,
	}
	if result.Message != "" {
		attrs = append(attrs, "message", result.Message)
	}
	if result.Outcome.Failed() {
		c.logger.Warn("result", attrs...)
	} else {
		c.logger.Debug("result", attrs...)
	}

	if c.next != nil {
		c.next.Add(result)
	}
}

// Done delegates to the wrapped collector and logs a failure to flush.
func (c *LoggingCollector) Done() error {
	if c.next == nil {
		return nil
	}
	err := c.next.Done()
	if err != nil {
		c.logger.Error("results not saved", "err", err)
	}
	return err
}
