package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrValidation  = errors.New("validation failed")
	ErrInvalidDate = errors.New("invalid calendar date")
)
