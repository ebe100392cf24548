package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrMissingCredential = errors.New("missing generation credential")
	ErrQueueUnavailable  = errors.New("brief queue unavailable")
	ErrNotStarted        = errors.New("service not started")
)
