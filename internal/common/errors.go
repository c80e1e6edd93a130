// Package common defines sentinel errors shared by the local cache, the
// remote adapters and the sync orchestrator. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors raised while translating records between stores.
	ErrorValidation = errors.New("validation error")
)
