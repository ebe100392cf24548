package genai

import "errors"

// Sentinel kinds for generation errors.
var (
	ErrNoResult         = errors.New("generator returned no text")
	ErrGenerationFailed = errors.New("generation call failed")
	ErrMissingAPIKey    = errors.New("missing api key")
)
