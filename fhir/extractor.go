// Package fhir understands just enough of FHIR JSON payloads to crawl a
// server: capability statements, bundles and resource references.
package fhir

import (
	"encoding/json"
	"strings"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.Extractor = (*Extractor)(nil)

// BundleType is the resource type of search result pages.
const BundleType = "Bundle"

// Extractor validates FHIR JSON payloads and returns the URLs they lead to.
//
// A search must return a Bundle and a read must return a resource of the type
// named in its URL. A read of a bare resource type, such as .../Patient, may
// return either. From bundles the next page link and every entry URL are
// followed; with FollowReferences set, resource references anywhere in the
// payload are followed too.
type Extractor struct {
	FollowReferences bool
}

// NewExtractor returns an Extractor that follows bundle links only.
func NewExtractor() *Extractor {
	return &Extractor{}
}

type bundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type bundleEntry struct {
	FullURL string `json:"fullUrl"`
}

type payload struct {
	ResourceType string        `json:"resourceType"`
	Link         []bundleLink  `json:"link"`
	Entry        []bundleEntry `json:"entry"`
}

// Extract implements fhircrawl.Extractor.
func (e *Extractor) Extract(resp *fhircrawl.Response) ([]string, error) {
	want, err := expectationOf(resp.URL)
	if err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "invalid JSON payload: %v", err)
	}
	if p.ResourceType == "" {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "payload has no resourceType")
	}
	if !want.accepts(p.ResourceType) {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "expected %s, got %s", want, p.ResourceType)
	}

	var urls []string
	if p.ResourceType == BundleType {
		urls = bundleURLs(&p)
	}
	if e.FollowReferences {
		refs, err := references(resp.Body, want.base)
		if err != nil {
			return nil, err
		}
		urls = append(urls, refs...)
	}
	return dedupe(urls), nil
}

func bundleURLs(p *payload) []string {
	var urls []string
	for _, l := range p.Link {
		if l.Relation == "next" && l.URL != "" {
			urls = append(urls, l.URL)
			break
		}
	}
	for _, e := range p.Entry {
		if e.FullURL != "" {
			urls = append(urls, e.FullURL)
		}
	}
	return urls
}

// expectation describes which payloads are valid for a request URL.
type expectation struct {
	resourceType string
	bundle       bool // a Bundle is accepted
	resource     bool // a resource of resourceType is accepted
	base         string
}

func (x expectation) accepts(resourceType string) bool {
	if x.bundle && resourceType == BundleType {
		return true
	}
	return x.resource && resourceType == x.resourceType
}

func (x expectation) String() string {
	switch {
	case x.bundle && x.resource:
		return BundleType + " or " + x.resourceType
	case x.bundle:
		return BundleType + " of " + x.resourceType
	default:
		return x.resourceType
	}
}

// expectationOf derives the expected payload from a request URL.
//
//	.../Patient/123           -> Patient
//	.../Patient/123?_format=x -> Patient
//	.../Patient?_id=123       -> Bundle
//	.../Patient               -> Bundle or Patient
func expectationOf(url string) (expectation, error) {
	if !strings.Contains(url, "://") {
		return expectation{}, fhircrawl.Errorf(fhircrawl.EINVALID, "do not understand url: %q", url)
	}
	path, _, query := strings.Cut(url, "?")
	entry, err := fhircrawl.Classify(url)
	if err != nil && query {
		// Reads may carry parameters such as _format.
		entry, err = fhircrawl.Classify(path)
	}
	if err != nil {
		return expectation{}, fhircrawl.Errorf(fhircrawl.EINVALID, "do not understand url: %q", url)
	}

	segments := strings.Split(path, "/")
	n := 1
	if segments[len(segments)-1] != entry.ResourceType {
		n = 2
	}
	want := expectation{resourceType: entry.ResourceType, base: baseOf(segments, n)}
	switch {
	case entry.IsSearch():
		want.bundle = true
	case entry.ID != "":
		want.resource = true
	default:
		want.bundle, want.resource = true, true
	}
	return want, nil
}

// baseOf joins all but the last n segments, keeping a trailing slash.
func baseOf(segments []string, n int) string {
	return strings.Join(segments[:len(segments)-n], "/") + "/"
}

func dedupe(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
