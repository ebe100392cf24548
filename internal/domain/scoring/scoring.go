// Package scoring turns policy attributes and weights into a bounded priority score.
package scoring

import (
	"math"
	"time"

	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Scoring constants.
const (
	// PremiumCeiling is the premium at which the premium contribution saturates.
	PremiumCeiling = 200_000
	// UrgencyHorizonDays is the distance at which expiry urgency reaches zero.
	UrgencyHorizonDays = 90
	// ClaimPenalty is the risk penalty per recorded claim.
	ClaimPenalty = 20

	maxScoreValue = 100
	hoursPerDay   = 24
)

// Breakdown exposes the three components that feed the weighted sum.
type Breakdown struct {
	NormalizedPremium float64 `json:"normalizedPremium"`
	Urgency           float64 `json:"urgency"`
	RiskPenalty       float64 `json:"riskPenalty"`
}

// Components computes the unweighted score components.
// Urgency is deliberately not capped: an expired policy pushes it above 100.
func Components(premium float64, daysToExpiry, claims int) Breakdown {
	return Breakdown{
		NormalizedPremium: math.Min(premium/PremiumCeiling, 1.0) * 100,
		Urgency:           math.Max(0, 100-float64(daysToExpiry)*(100.0/UrgencyHorizonDays)),
		RiskPenalty:       float64(claims) * ClaimPenalty,
	}
}

// Priority returns the weighted priority in [0,100], rounded to one decimal.
func Priority(premium float64, daysToExpiry, claims int, w model.Weights) float64 {
	c := Components(premium, daysToExpiry, claims)
	raw := w.Premium*c.NormalizedPremium + w.Time*c.Urgency - w.Claims*c.RiskPenalty
	if math.IsNaN(raw) {
		return 0
	}
	return Round1(math.Max(0, math.Min(maxScoreValue, raw)))
}

// Round1 rounds v half away from zero to one decimal place.
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// DaysToExpiry is the ceiling of the whole days between now and expiry.
// It is negative once the policy is overdue.
func DaysToExpiry(expiry model.Date, now time.Time) int {
	diff := expiry.Time.Sub(now)
	return int(math.Ceil(diff.Hours() / hoursPerDay))
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithClock replaces the wall clock used for days-to-expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// Scorer evaluates policies against the current time. It holds no cache:
// every call reads the clock again.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer bound to time.Now unless a clock is supplied.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scorer's notion of the current time.
func (s *Scorer) Now() time.Time {
	return s.now()
}

// Score computes the derived ranking fields of a single policy.
func (s *Scorer) Score(p model.Policy, w model.Weights) model.ScoredPolicy {
	return s.ScoreAt(p, w, s.now())
}

// ScoreAt scores p against a fixed instant, so that a whole ranking pass
// shares one clock reading.
func (s *Scorer) ScoreAt(p model.Policy, w model.Weights, now time.Time) model.ScoredPolicy {
	days := DaysToExpiry(p.ExpiryDate, now)
	return model.ScoredPolicy{
		Policy:        p,
		DaysToExpiry:  days,
		PriorityScore: Priority(p.Premium, days, p.Claims, w),
	}
}

// Explain returns the component breakdown of p at the scorer's current time.
func (s *Scorer) Explain(p model.Policy) Breakdown {
	return Components(p.Premium, DaysToExpiry(p.ExpiryDate, s.now()), p.Claims)
}
