package ports

import "errors"

// Shared error taxonomy. Adapters wrap their failures with these
// sentinels so callers can branch with errors.Is without knowing the
// backing driver.
var (
	// ErrValidation marks bad input (empty title). The record is
	// dropped, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateKey marks a unique-constraint violation. Benign under
	// concurrency and re-ingestion; callers retry or skip.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUnavailable marks a store that cannot be reached. Propagates to
	// the top-level caller, which stops the run.
	ErrUnavailable = errors.New("persistence unavailable")

	// ErrSummarization marks a failed or unparseable summarization call.
	// Isolated to one category; never aborts a batch digest run.
	ErrSummarization = errors.New("summarization failed")

	// ErrTransient marks bounded-retry exhaustion in the coordinator's
	// insert loop.
	ErrTransient = errors.New("transient failure")
)
