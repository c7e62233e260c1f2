package crawl

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ComputeHash returns the hex xxhash digest of content.
func ComputeHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		// Too short for "..." prefix, just return dots
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatDuration formats d rounded for progress and summary output.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

// FormatSummary renders a one-line description of a finished crawl.
func FormatSummary(s *Summary, failures int) string {
	return fmt.Sprintf("%s: %d requests, %d failures in %s",
		s.State, s.Dispatched, failures, FormatDuration(s.Elapsed))
}
