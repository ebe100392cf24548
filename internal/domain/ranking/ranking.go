// Package ranking derives the ordered renewal queue from policies and weights.
//
// The view is never cached: callers rank again after every change to the
// policy list or the weights, and every call reads the scorer's clock.
package ranking

import (
	"sort"
	"time"

	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/internal/domain/scoring"
	"github.com/okian/brokerflow/pkg/metrics"
)

// Summary band and window constants.
const (
	ExpiringWindowDays = 30
	HighPriorityScore  = 70
	MediumPriority     = 50
)

// Premium range labels used by Summarize.
const (
	RangeUpTo25K   = "0-25K"
	Range25KTo50K  = "25K-50K"
	Range50KTo100K = "50K-100K"
	RangeAbove100K = "100K+"
)

// Rank scores every policy and sorts the result by priority, highest first.
// Policies with equal scores keep their relative input order. Ranks are
// 1-based. All policies are scored against a single clock reading.
func Rank(policies []model.Policy, w model.Weights, scorer *scoring.Scorer) []model.ScoredPolicy {
	start := time.Now()
	defer func() {
		metrics.RecordRankComputation(float64(time.Since(start).Microseconds()) / 1000)
	}()

	now := scorer.Now()
	out := make([]model.ScoredPolicy, len(policies))
	for i, p := range policies {
		out[i] = scorer.ScoreAt(p, w, now)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top returns the first n entries of a ranked view. A non-positive n or one
// larger than the view returns the whole view.
func Top(ranked []model.ScoredPolicy, n int) []model.ScoredPolicy {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// Summary aggregates a ranked view for the dashboard.
type Summary struct {
	TotalPolicies      int            `json:"totalPolicies"`
	TotalPremium       float64        `json:"totalPremium"`
	// ExpiringSoon includes overdue policies; Overdue is the subset already past expiry.
	ExpiringSoon       int            `json:"expiringSoon"`
	Overdue            int            `json:"overdue"`
	HighPriority       int            `json:"highPriority"`
	MediumPriority     int            `json:"mediumPriority"`
	LowPriority        int            `json:"lowPriority"`
	AverageScore       float64        `json:"averageScore"`
	StatusCounts       map[string]int `json:"statusCounts"`
	IndustryCounts     map[string]int `json:"industryCounts"`
	PremiumRanges      map[string]int `json:"premiumRanges"`
	SentRatio          float64        `json:"sentRatio"`
	TopPriorityID      string         `json:"topPriorityId,omitempty"`
	ExpiringWindowDays int            `json:"expiringWindowDays"`
}

// Summarize computes dashboard aggregates over a ranked view.
func Summarize(ranked []model.ScoredPolicy) Summary {
	s := Summary{
		TotalPolicies:      len(ranked),
		StatusCounts:       make(map[string]int, len(model.Statuses())),
		IndustryCounts:     make(map[string]int),
		PremiumRanges:      map[string]int{RangeUpTo25K: 0, Range25KTo50K: 0, Range50KTo100K: 0, RangeAbove100K: 0},
		ExpiringWindowDays: ExpiringWindowDays,
	}
	for _, st := range model.Statuses() {
		s.StatusCounts[string(st)] = 0
	}
	if len(ranked) == 0 {
		return s
	}

	s.TopPriorityID = ranked[0].ID

	var scoreSum float64
	for _, p := range ranked {
		s.TotalPremium += p.Premium
		scoreSum += p.PriorityScore

		if p.DaysToExpiry <= ExpiringWindowDays {
			s.ExpiringSoon++
		}
		if p.DaysToExpiry < 0 {
			s.Overdue++
		}

		switch {
		case p.PriorityScore >= HighPriorityScore:
			s.HighPriority++
		case p.PriorityScore >= MediumPriority:
			s.MediumPriority++
		default:
			s.LowPriority++
		}

		s.StatusCounts[string(p.Status)]++
		s.IndustryCounts[p.Industry]++
		s.PremiumRanges[premiumRange(p.Premium)]++
	}

	s.AverageScore = scoring.Round1(scoreSum / float64(len(ranked)))
	s.SentRatio = float64(s.StatusCounts[string(model.StatusSent)]) / float64(len(ranked))
	return s
}

func premiumRange(premium float64) string {
	switch {
	case premium < 25_000:
		return RangeUpTo25K
	case premium < 50_000:
		return Range25KTo50K
	case premium < 100_000:
		return Range50KTo100K
	default:
		return RangeAbove100K
	}
}
