package service

import "errors"

// External error taxonomy. Handlers map these to wire responses; anything
// else degrades to a generic 500-class response so internal detail never
// leaks.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("email and password combination is not valid")

	// ErrSessionInvalid collapses missing, expired, revoked and
	// CSRF-mismatched sessions into one indistinguishable failure.
	ErrSessionInvalid = errors.New("session not valid")

	// ErrOAuthExchange propagates a failed provider code exchange or
	// profile fetch.
	ErrOAuthExchange = errors.New("oauth exchange failed")
)
