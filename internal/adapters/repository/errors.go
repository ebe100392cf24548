package repository

import "errors"

// Sentinel kinds for policy store errors.
var (
	ErrNotFound = errors.New("policy not found")
)
