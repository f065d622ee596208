// Package services implements the business logic shared by the fuelextract
// CLI and the fuelserver HTTP API.
//
// # ExtractionService
//
// Run performs one fetch → extract → export → store pass and returns a
// domain.RunSummary. Only one run executes at a time; a second caller gets
// ErrRunInProgress instead of queueing behind the first. Every run gets a
// UUID that is attached to the context, so all log lines of the run carry
// run_id, and a span per stage (fetch, extract, export, store).
//
// A grid with no site anchors is not an error: the run succeeds with
// Empty set and no files written.
//
// # HealthService
//
// HealthCheck, ReadinessCheck and LivenessCheck back the health endpoints.
// Readiness pings the run store when one is configured.
package services
