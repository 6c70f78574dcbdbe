package credstore

import "errors"

// Domain errors for the credstore package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, credstore.ErrNotFound) {
//	    // record was never written; not a failure
//	}
var (
	// ErrNotFound is returned by Get when the (scopeID, category) record
	// does not exist. Callers branch on this; it is never a transport error.
	ErrNotFound = errors.New("credstore: record not found")

	// ErrUnavailable is returned when the underlying store cannot be
	// reached. It is propagated unchanged so callers see connectivity
	// failures distinctly from absence.
	ErrUnavailable = errors.New("credstore: storage unavailable")

	// ErrMalformedRecord is returned when a stored record is present but
	// cannot be parsed into its typed form (missing fields, misaligned
	// device/label lists).
	ErrMalformedRecord = errors.New("credstore: malformed record")
)
