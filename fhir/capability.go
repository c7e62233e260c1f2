package fhir

import (
	"encoding/json"
	"strings"

	"github.com/fwojciec/fhircrawl"
)

// Capabilities is the part of a server's capability statement that matters
// for discovering patient resources.
type Capabilities struct {
	FHIRVersion fhircrawl.FHIRVersion
	Resources   []SupportedResource
}

// SupportedResource is a resource type the server exposes over REST.
type SupportedResource struct {
	Type         string
	SearchParams []string
}

// SearchableByPatient reports whether the resource supports the patient
// search parameter.
func (r SupportedResource) SearchableByPatient() bool {
	for _, p := range r.SearchParams {
		if p == "patient" {
			return true
		}
	}
	return false
}

// DSTU2 calls the statement Conformance; STU3 and R4 call it
// CapabilityStatement. The REST section has the same shape in all three.
type statement struct {
	ResourceType string `json:"resourceType"`
	FHIRVersion  string `json:"fhirVersion"`
	Rest         []struct {
		Resource []struct {
			Type        string `json:"type"`
			SearchParam []struct {
				Name string `json:"name"`
			} `json:"searchParam"`
		} `json:"resource"`
	} `json:"rest"`
}

// ParseCapabilities decodes a Conformance or CapabilityStatement resource.
// Returns EINVALID if body is neither.
func ParseCapabilities(body []byte) (*Capabilities, error) {
	var s statement
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "cannot determine FHIR version of metadata: %v", err)
	}

	caps := &Capabilities{}
	switch s.ResourceType {
	case "Conformance":
		caps.FHIRVersion = fhircrawl.FHIRVersionDSTU2
	case "CapabilityStatement":
		caps.FHIRVersion = fhircrawl.FHIRVersionR4
		if strings.HasPrefix(s.FHIRVersion, "3.") {
			caps.FHIRVersion = fhircrawl.FHIRVersionSTU3
		}
	default:
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "cannot determine FHIR version of metadata: resourceType %q", s.ResourceType)
	}

	for _, rest := range s.Rest {
		for _, res := range rest.Resource {
			r := SupportedResource{Type: res.Type}
			for _, p := range res.SearchParam {
				r.SearchParams = append(r.SearchParams, p.Name)
			}
			caps.Resources = append(caps.Resources, r)
		}
	}
	return caps, nil
}

// Queries returns the seed queries for a patient:
//
//   - <Type>?patient=<id> for every resource searchable by patient
//   - Patient/<id> and Patient?_id=<id> when Patient is supported
func (c *Capabilities) Queries(baseURL, patientID string) []string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	var queries []string
	var patient bool
	for _, r := range c.Resources {
		if r.SearchableByPatient() {
			queries = append(queries, baseURL+r.Type+"?patient="+patientID)
		}
		if r.Type == "Patient" {
			patient = true
		}
	}
	if patient {
		queries = append(queries,
			baseURL+"Patient/"+patientID,
			baseURL+"Patient?_id="+patientID,
		)
	}
	return queries
}
