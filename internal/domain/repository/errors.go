package repository

import "errors"

// Port error kinds. Callers branch on these with errors.Is to decide whether
// an operation is worth retrying at a higher level.
var (
	// ErrEnvelopeNotFound means no identifier mapping exists for the given
	// local id. Surfaced before any network call.
	ErrEnvelopeNotFound = errors.New("envelope not found")

	// ErrEnvelopeCreation means the provider accepted the create request but
	// the response carried no identifier.
	ErrEnvelopeCreation = errors.New("envelope creation failed: response missing identifier")
)
