package api

import "errors"

// ErrBadRequest marks malformed request input.
var ErrBadRequest = errors.New("bad request")

// Error codes returned in error bodies.
const (
	codeBadRequest        = "bad_request"
	codeNotFound          = "not_found"
	codeInvalidTransition = "invalid_transition"
	codeMissingCredential = "missing_credential"
	codeUnavailable       = "unavailable"
	codeInternal          = "internal_error"
)
