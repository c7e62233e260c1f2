package fhircrawl

import "context"

// FHIRVersion identifies the FHIR release a server implements.
type FHIRVersion string

// Supported FHIR releases.
const (
	FHIRVersionUnknown FHIRVersion = ""
	FHIRVersionDSTU2   FHIRVersion = "DSTU2"
	FHIRVersionSTU3    FHIRVersion = "STU3"
	FHIRVersionR4      FHIRVersion = "R4"
)

// Discovery holds the seed queries derived from a server's capability statement.
type Discovery struct {
	BaseURL     string
	PatientID   string
	FHIRVersion FHIRVersion
	Queries     []string
}

// SeedService discovers the initial crawl queries for a patient.
type SeedService interface {
	// Discover reads the capability statement published under baseURL and
	// returns the queries that start a crawl of the patient's resources.
	Discover(ctx context.Context, baseURL, patientID string) (*Discovery, error)
}
