// Package common defines shared constants and sentinel errors used across
// QuotaKeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Storage is unreachable or a transaction could not complete.
	// Enforcement callers must fail closed on this.
	ErrorStorageUnavailable = errors.New("storage unavailable")

	// A payment id that no row exists for.
	ErrorUnknownPayment = errors.New("unknown payment")

	// An account references a tier id missing from the catalog.
	ErrorUnknownTier = errors.New("unknown tier")
)
