package fhircrawl

import "context"

// Response is the raw outcome of a successful HTTP exchange.
// Non-2xx responses are still responses; the crawler decides what they mean.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves FHIR resources over HTTP.
type Fetcher interface {
	// Fetch performs a GET against url, authenticating with the bearer token
	// when it is not empty. Returns EINVALID if the URL cannot be requested and
	// a plain error for transport failures.
	Fetch(ctx context.Context, url string, token string) (*Response, error)
}
