package suntimes

import (
	"errors"
	"fmt"
)

// Client input errors.
var (
	// ErrInvalidDateRange covers a start date after the end date, an
	// unparseable date, or a window wider than the provider allows.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrMissingParameter is returned when a required request field is absent.
	ErrMissingParameter = errors.New("missing required parameter")
)

// Resolver errors. Implementations in internal/geocoding wrap these so the
// orchestrator and the HTTP layer can tell "bad location" from "resolver down".
var (
	ErrLocationNotFound    = errors.New("location not found")
	ErrResolverUnavailable = errors.New("geocoding service unavailable")
)

// Provider errors, in classification priority order.
var (
	// ErrProviderUnavailable covers transport failures, 5xx responses and an
	// open circuit breaker. Transient; the caller may retry the whole request.
	ErrProviderUnavailable = errors.New("sun-time provider unavailable")

	// ErrRateLimited is a distinguishable subtype of ErrProviderUnavailable
	// so callers can apply backoff.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrProviderUnavailable)

	// ErrInvalidQuery is permanent: the provider rejected the parameters.
	ErrInvalidQuery = errors.New("invalid provider query")

	// ErrMalformedResponse means the provider body was not parseable.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrProvider is the generic classification for any other non-success
	// provider outcome.
	ErrProvider = errors.New("sun-time provider error")
)

// Store errors.
var (
	// ErrDuplicateRecord is the store rejecting a second insert for an
	// existing (location, date) pair. Expected under concurrent
	// reconciliations; the orchestrator absorbs it.
	ErrDuplicateRecord = errors.New("record already exists for location and date")

	// ErrValidation is a store-level field violation (missing required
	// field, out-of-range coordinates).
	ErrValidation = errors.New("record validation failed")

	// ErrNotFound is returned by id-based lookups and deletes.
	ErrNotFound = errors.New("record not found")
)
