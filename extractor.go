package fhircrawl

// Extractor derives follow-up URLs from a fetched resource.
type Extractor interface {
	// Extract validates the payload of resp against what its URL asked for and
	// returns the URLs it references, such as bundle pagination links and
	// entry URLs. Returns EINVALID if the payload is not what was requested.
	Extract(resp *Response) ([]string, error)
}
