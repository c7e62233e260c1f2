package fhir_test

import (
	"testing"

	"github.com/fwojciec/fhircrawl"
	"github.com/fwojciec/fhircrawl/fhir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseURL   = "http://localhost:8090/api/"
	patientID = "185601V825290"
)

const restResources = `"rest": [{
	"resource": [
		{"type": "ThingNotSearchable"},
		{"type": "ThingNotSearchableByPatient", "searchParam": [{"name": "_id"}]},
		{"type": "Thing", "searchParam": [{"name": "_id"}, {"name": "patient"}]},
		{"type": "Patient", "searchParam": [{"name": "_id"}]}
	]
}]`

func TestParseCapabilities(t *testing.T) {
	t.Parallel()

	t.Run("detects DSTU2 conformance statements", func(t *testing.T) {
		t.Parallel()

		caps, err := fhir.ParseCapabilities([]byte(`{"resourceType": "Conformance", "fhirVersion": "1.0.2"}`))

		require.NoError(t, err)
		assert.Equal(t, fhircrawl.FHIRVersionDSTU2, caps.FHIRVersion)
	})

	t.Run("detects R4 capability statements", func(t *testing.T) {
		t.Parallel()

		caps, err := fhir.ParseCapabilities([]byte(`{"resourceType": "CapabilityStatement", "fhirVersion": "4.0.1"}`))

		require.NoError(t, err)
		assert.Equal(t, fhircrawl.FHIRVersionR4, caps.FHIRVersion)
	})

	t.Run("detects STU3 capability statements", func(t *testing.T) {
		t.Parallel()

		caps, err := fhir.ParseCapabilities([]byte(`{"resourceType": "CapabilityStatement", "fhirVersion": "3.0.2"}`))

		require.NoError(t, err)
		assert.Equal(t, fhircrawl.FHIRVersionSTU3, caps.FHIRVersion)
	})

	t.Run("rejects unknown statements", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{`fugazi`, `{"resourceType": "OperationOutcome"}`, `{}`} {
			_, err := fhir.ParseCapabilities([]byte(body))
			assert.Equal(t, fhircrawl.EINVALID, fhircrawl.ErrorCode(err), body)
		}
	})
}

func TestCapabilities_Queries(t *testing.T) {
	t.Parallel()

	for _, resourceType := range []string{"Conformance", "CapabilityStatement"} {
		t.Run(resourceType, func(t *testing.T) {
			t.Parallel()

			t.Run("returns no queries without rest resources", func(t *testing.T) {
				t.Parallel()

				caps, err := fhir.ParseCapabilities([]byte(`{"resourceType": "` + resourceType + `"}`))
				require.NoError(t, err)
				assert.Empty(t, caps.Queries(baseURL, patientID))

				caps, err = fhir.ParseCapabilities([]byte(`{"resourceType": "` + resourceType + `", "rest": []}`))
				require.NoError(t, err)
				assert.Empty(t, caps.Queries(baseURL, patientID))
			})

			t.Run("returns patient queries", func(t *testing.T) {
				t.Parallel()

				caps, err := fhir.ParseCapabilities([]byte(`{"resourceType": "` + resourceType + `", ` + restResources + `}`))
				require.NoError(t, err)

				assert.Equal(t, []string{
					baseURL + "Thing?patient=" + patientID,
					baseURL + "Patient/" + patientID,
					baseURL + "Patient?_id=" + patientID,
				}, caps.Queries(baseURL, patientID))
			})
		})
	}

	t.Run("appends slash to base url", func(t *testing.T) {
		t.Parallel()

		caps := &fhir.Capabilities{Resources: []fhir.SupportedResource{{Type: "Patient"}}}

		assert.Equal(t, []string{
			"http://localhost:8090/api/Patient/1",
			"http://localhost:8090/api/Patient?_id=1",
		}, caps.Queries("http://localhost:8090/api", "1"))
	})
}
