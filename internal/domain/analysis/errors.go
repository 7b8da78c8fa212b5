package analysis

import "errors"

// Failure taxonomy for the pipeline. Oracle implementations return the
// first two; both degrade to fallback content at the orchestrator
// boundary and never reach the HTTP caller. ErrReportData is the one
// class that propagates: it means a trusted collaborator handed us
// corrupt stored data, which is a bug, not an unreliable oracle.
var (
	// ErrNotConfigured: no credential configured for the oracle.
	// Returned immediately, no retry.
	ErrNotConfigured = errors.New("oracle credential not configured")

	// ErrUnavailable: every transport attempt failed (non-2xx, network
	// error, malformed or empty response body).
	ErrUnavailable = errors.New("oracle unavailable")

	// ErrReportData: stored report data could not be processed.
	ErrReportData = errors.New("malformed report data")
)
