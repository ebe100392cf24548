package model

import (
	"fmt"
	"math"
)

// Weights tunes how much premium, expiry urgency and claims contribute to the
// priority score. They are not required to sum to one.
type Weights struct {
	Premium float64 `json:"premium"`
	Time    float64 `json:"time"`
	Claims  float64 `json:"claims"`
}

// DefaultWeights is used when no weight configuration was ever saved.
func DefaultWeights() Weights {
	return Weights{Premium: 0.4, Time: 0.4, Claims: 0.2}
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{{"premium", w.Premium}, {"time", w.Time}, {"claims", w.Claims}}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < 0 {
			return fmt.Errorf("%w: %s weight must be a non-negative number", ErrValidation, c.name)
		}
	}
	return nil
}
