package mock

import "github.com/fwojciec/fhircrawl"

var _ fhircrawl.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of fhircrawl.Extractor.
type Extractor struct {
	ExtractFn func(resp *fhircrawl.Response) ([]string, error)
}

func (e *Extractor) Extract(resp *fhircrawl.Response) ([]string, error) {
	return e.ExtractFn(resp)
}
