// Package negotiation simulates client retention under a pricing proposal.
// It is a pure sandbox and never touches stored policies.
package negotiation

import (
	"errors"
	"fmt"
	"math"
)

// Input bounds.
const (
	MinPremiumAdjustment   = -20
	MaxPremiumAdjustment   = 20
	MinDeductibleChange    = -50
	MaxDeductibleChange    = 50
	baselineRetention      = 90
	premiumSensitivity     = 2
	deductibleSensitivity  = 0.5
	highConfidenceFloor    = 80
	mediumConfidenceFloor  = 60
	maxRetentionPercentage = 100
)

// ErrOutOfRange is returned when an adjustment lies outside its slider range.
var ErrOutOfRange = errors.New("adjustment out of range")

// Confidence bands for a predicted retention.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Input is a proposed premium and deductible change, both in percent.
type Input struct {
	PremiumAdjustmentPercent float64 `json:"premiumAdjustmentPercent"`
	DeductibleChangePercent  float64 `json:"deductibleChangePercent"`
}

// Validate checks both adjustments against their ranges.
func (in Input) Validate() error {
	if math.IsNaN(in.PremiumAdjustmentPercent) ||
		in.PremiumAdjustmentPercent < MinPremiumAdjustment || in.PremiumAdjustmentPercent > MaxPremiumAdjustment {
		return fmt.Errorf("%w: premium adjustment %v not in [%d,%d]",
			ErrOutOfRange, in.PremiumAdjustmentPercent, MinPremiumAdjustment, MaxPremiumAdjustment)
	}
	if math.IsNaN(in.DeductibleChangePercent) ||
		in.DeductibleChangePercent < MinDeductibleChange || in.DeductibleChangePercent > MaxDeductibleChange {
		return fmt.Errorf("%w: deductible change %v not in [%d,%d]",
			ErrOutOfRange, in.DeductibleChangePercent, MinDeductibleChange, MaxDeductibleChange)
	}
	return nil
}

// PredictRetention returns the retention probability in [0,100].
// A premium increase costs two points per percent; a higher deductible
// gains half a point per percent.
func PredictRetention(premiumAdjustmentPercent, deductibleChangePercent float64) float64 {
	r := baselineRetention - premiumSensitivity*premiumAdjustmentPercent + deductibleSensitivity*deductibleChangePercent
	return math.Max(0, math.Min(maxRetentionPercentage, r))
}

// Confidence maps a retention probability to its display band.
func Confidence(retention float64) string {
	switch {
	case retention >= highConfidenceFloor:
		return ConfidenceHigh
	case retention >= mediumConfidenceFloor:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Result is a full simulation outcome.
type Result struct {
	Input
	Retention  float64 `json:"retention"`
	Confidence string  `json:"confidence"`
}

// Simulate validates in and returns its prediction.
func Simulate(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	r := PredictRetention(in.PremiumAdjustmentPercent, in.DeductibleChangePercent)
	return Result{Input: in, Retention: r, Confidence: Confidence(r)}, nil
}
