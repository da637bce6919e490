package domain

import "errors"

var (
	// ErrDataSourceUnavailable marks a connection or bulk-read failure. Fatal
	// before any mutation happens.
	ErrDataSourceUnavailable = errors.New("data source unavailable")

	// ErrSchemaMismatch marks missing join keys or expected columns.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInsufficientTrainingData marks a training set below the configured
	// minimum row count. No partial model is trusted.
	ErrInsufficientTrainingData = errors.New("insufficient training data")

	// ErrUnknownCategory marks an inference-time article or location id that
	// was absent when the encoders were fit.
	ErrUnknownCategory = errors.New("unknown category")
)

// WriteBackResult reports the per-row outcome of the stock_minimo write-back.
// Partial failure is non-fatal as long as at least one update landed; the
// counts are surfaced so the caller can log and alert on them.
type WriteBackResult struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Partial reports whether some but not all updates failed.
func (r WriteBackResult) Partial() bool {
	return r.Failed > 0 && r.Succeeded > 0
}
