package fhir

import (
	"encoding/json"
	"strings"

	"github.com/fwojciec/fhircrawl"
)

// references returns the URLs of every resource reference in body.
// Relative references (Type/id) are resolved against base. Contained
// (#id) and logical (urn:) references are skipped.
func references(body []byte, base string) ([]string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "invalid JSON payload: %v", err)
	}
	var urls []string
	walk(doc, func(ref string) {
		if u, ok := Resolve(base, ref); ok {
			urls = append(urls, u)
		}
	})
	return urls, nil
}

// walk calls fn with the value of every "reference" string field in v.
func walk(v any, fn func(string)) {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			if s, ok := child.(string); ok && k == "reference" {
				fn(s)
				continue
			}
			walk(child, fn)
		}
	case []any:
		for _, child := range v {
			walk(child, fn)
		}
	}
}

// Resolve turns a FHIR reference into a URL that can be crawled.
// Absolute http(s) references are returned as is; relative references of the
// form Type/id are resolved against base. Anything else is rejected.
func Resolve(base, ref string) (string, bool) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, true
	}
	typ, id, ok := strings.Cut(ref, "/")
	if !ok || id == "" || strings.ContainsAny(id, "/?#") || !fhircrawl.IsResourceType(typ) {
		return "", false
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + ref, true
}
