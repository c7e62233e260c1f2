package crawl

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/fhircrawl"
	"golang.org/x/time/rate"
)

var _ fhircrawl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter throttles requests with one token bucket per host. Host names
// are compared case-insensitively, so a rewritten base URL and the links a
// server returns share a bucket even when their casing differs.
type DomainLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewDomainLimiter returns a limiter allowing rps requests per second to each
// host, with up to burst requests back to back. A non-positive rps disables
// throttling and a burst below 1 is raised to 1.
func NewDomainLimiter(rps float64, burst int) *DomainLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &DomainLimiter{
		limit: limit,
		burst: max(burst, 1),
		hosts: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	return d.bucket(host).Wait(ctx)
}

func (d *DomainLimiter) bucket(host string) *rate.Limiter {
	key := strings.ToLower(host)

	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.hosts[key]
	if !ok {
		l = rate.NewLimiter(d.limit, d.burst)
		d.hosts[key] = l
	}
	return l
}
