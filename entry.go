package fhircrawl

import "strings"

// Kind distinguishes search requests from direct reads.
type Kind int

// Request kinds.
const (
	KindRead Kind = iota
	KindSearch
)

func (k Kind) String() string {
	if k == KindSearch {
		return "search"
	}
	return "read"
}

// Entry is a classified request URL.
type Entry struct {
	URL          string
	ResourceType string
	ID           string // empty for searches and bare type reads
	Kind         Kind
}

// IsSearch reports whether the entry is a search request.
func (e Entry) IsSearch() bool { return e.Kind == KindSearch }

// Classify determines the resource type of a request URL and whether it is a
// search or a read.
//
// A URL with a query string is a search for the resource type named by the
// last path segment:
//
//	https://example.com/api/Condition?patient=123 -> Condition (search)
//
// Otherwise it is a read. The resource type is the second-to-last segment when
// that segment names a resource type, else the last segment with an empty id:
//
//	https://example.com/api/Condition/123 -> Condition/123 (read)
//	https://example.com/api/Condition     -> Condition (read)
//	https://example.com/FHIR/R4/Condition -> Condition (read)
//
// Returns EINVALID if the URL has no path separator or no resource type can
// be derived from it.
func Classify(url string) (Entry, error) {
	path, _, search := strings.Cut(url, "?")
	if !strings.Contains(path, "/") {
		return Entry{}, Errorf(EINVALID, "missing / in url: %q", url)
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	entry := Entry{URL: url, Kind: KindRead}
	switch {
	case search:
		entry.Kind = KindSearch
		entry.ResourceType = last
	case IsResourceType(segments[len(segments)-2]):
		entry.ResourceType = segments[len(segments)-2]
		entry.ID = last
	default:
		entry.ResourceType = last
	}

	if !IsResourceType(entry.ResourceType) {
		return Entry{}, Errorf(EINVALID, "cannot determine resource type of url: %q", url)
	}
	return entry, nil
}

// fhirVersions are release names that commonly appear in server base paths.
var fhirVersions = map[string]struct{}{
	"DSTU1": {},
	"DSTU2": {},
	"STU3":  {},
	"R4":    {},
	"R4B":   {},
	"R5":    {},
	"R6":    {},
}

// IsResourceType reports whether s has the shape of a FHIR resource type name:
// an upper-case ASCII letter followed by ASCII letters and digits. FHIR
// release names such as R4 or STU3 are not resource types.
func IsResourceType(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	if _, ok := fhirVersions[s]; ok {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
