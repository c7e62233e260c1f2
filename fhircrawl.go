// Package fhircrawl provides a crawler that validates every resource
// reachable through a FHIR REST API. It discovers seed queries from the
// server's capability statement, walks bundles and references with a
// concurrent worker pool, and records one result per fetched URL.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., crawl/, http/, sqlite/).
package fhircrawl
