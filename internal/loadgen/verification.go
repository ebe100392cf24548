package loadgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/internal/domain/scoring"
	"github.com/okian/brokerflow/pkg/logger"
)

// fetchRanking retrieves the current weights and the full ranked view.
func fetchRanking(ctx context.Context, config *Config, stats *Stats) (model.Weights, []model.ScoredPolicy, error) {
	client := newHTTPClient(config.BaseURL, config.Timeout)

	var w model.Weights
	if err := client.GetJSON(ctx, "/api/weights", &w); err != nil {
		return model.Weights{}, nil, fmt.Errorf("weights: %w", err)
	}
	var page rankedPage
	if err := client.GetJSON(ctx, "/api/policies", &page); err != nil {
		return model.Weights{}, nil, fmt.Errorf("policies: %w", err)
	}

	stats.RankedEntries = len(page.Items)
	logger.Get().Info(ctx, "retrieved ranked policies", logger.Int("count", len(page.Items)))
	return w, page.Items, nil
}

// verifyRanking checks that the ranked view is ordered, densely ranked,
// scored with the reported weights and contains every created policy.
func verifyRanking(w model.Weights, ranked []model.ScoredPolicy, created []model.Policy) error {
	if len(ranked) == 0 {
		return errors.New("no ranked policies to verify")
	}

	var errs []error
	seen := make(map[string]model.ScoredPolicy, len(ranked))
	for i, sp := range ranked {
		seen[sp.ID] = sp
		if sp.Rank != i+1 {
			errs = append(errs, fmt.Errorf("entry %d (%s) has rank %d", i, sp.ID, sp.Rank))
		}
		if i > 0 && sp.PriorityScore > ranked[i-1].PriorityScore {
			errs = append(errs, fmt.Errorf("entry %d (%s) outranks entry %d", i, sp.ID, i-1))
		}
		if want := scoring.Priority(sp.Premium, sp.DaysToExpiry, sp.Claims, w); want != sp.PriorityScore {
			errs = append(errs, fmt.Errorf("%s scored %.1f, expected %.1f", sp.ID, sp.PriorityScore, want))
		}
	}

	for _, p := range created {
		if _, ok := seen[p.ID]; !ok {
			errs = append(errs, fmt.Errorf("created policy %s missing from ranking", p.ID))
		}
	}
	return errors.Join(errs...)
}

// displayTopPolicies logs the head of the ranked view.
func displayTopPolicies(ctx context.Context, ranked []model.ScoredPolicy, topN int) {
	log := logger.Get()
	for _, sp := range ranked[:minInt(topN, len(ranked))] {
		log.Info(ctx, "ranked policy",
			logger.Int("rank", sp.Rank),
			logger.String("id", sp.ID),
			logger.String("client", sp.Client),
			logger.Float64("score", sp.PriorityScore),
			logger.Int("daysToExpiry", sp.DaysToExpiry),
			logger.String("status", string(sp.Status)))
	}
}
