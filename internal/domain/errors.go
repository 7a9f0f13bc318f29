package domain

import "errors"

var (
	// ErrValidation marks caller errors that fail fast before any network call.
	ErrValidation = errors.New("validation error")

	// ErrCredential marks an unusable service-account credential. The process
	// cannot issue tokens at all; surfaced as a startup failure.
	ErrCredential = errors.New("credential error")

	// ErrAuthExchange marks a failed token exchange with the identity
	// provider. Retryable; fails the whole dispatch since no send can
	// succeed without a bearer token.
	ErrAuthExchange = errors.New("auth exchange error")
)
