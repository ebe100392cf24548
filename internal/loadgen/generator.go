package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	premiumTierDivisor = 8
	claimsDivisor      = 10
)

// Constants for premium generation ranges.
const (
	smallPremiumMin  = 1_000.0
	smallPremiumSpan = 24_000.0
	midPremiumMin    = 25_000.0
	midPremiumSpan   = 95_000.0
	largePremiumMin  = 120_000.0
	largePremiumSpan = 130_000.0
	jumboPremiumMin  = 250_000.0
	jumboPremiumSpan = 250_000.0
)

// Expiry offsets in days relative to today.
const (
	expiryMinOffset = -15
	expirySpan      = 196
)

var (
	industries = []string{"Technology", "Manufacturing", "Healthcare", "Retail", "Construction", "Logistics"}
	lines      = []string{"General Liability", "Property", "Cyber", "Workers Compensation", "Professional Liability"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generatePolicies creates the requested number of policy inputs, each with a
// unique source identifier.
func generatePolicies(ctx context.Context, config *Config, stats *Stats) ([]model.PolicyInput, error) {
	logger.Get().Info(ctx, "generating policies", logger.Int("numPolicies", config.NumPolicies))

	today := model.DateOf(time.Now())
	policies := make([]model.PolicyInput, config.NumPolicies)
	for i := range policies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during policy generation: %w", err)
		}
		policies[i] = generateSinglePolicy(i, today)
	}

	stats.PoliciesGenerated = len(policies)
	logger.Get().Info(ctx, "generated policies successfully", logger.Int("count", len(policies)))
	return policies, nil
}

// generateSinglePolicy creates one policy input expiring relative to today.
func generateSinglePolicy(index int, today model.Date) model.PolicyInput {
	premium := generatePremium()
	sourceID := uuid.New().String()
	return model.PolicyInput{
		Client:     fmt.Sprintf("Loadgen Client %d-%s", index, sourceID[:8]),
		Industry:   industries[randomIndex(len(industries))],
		Type:       lines[randomIndex(len(lines))],
		Premium:    &premium,
		ExpiryDate: today.AddDays(expiryMinOffset + randomIndex(expirySpan)),
		Claims:     generateClaims(),
		SourceID:   sourceID,
	}
}

// generatePremium draws a whole-dollar premium, mostly small and mid accounts.
func generatePremium() float64 {
	var v float64
	switch randomIndex(premiumTierDivisor) {
	case 0, 1, 2:
		v = smallPremiumMin + getRandomFloat()*smallPremiumSpan
	case 3, 4, 5:
		v = midPremiumMin + getRandomFloat()*midPremiumSpan
	case 6:
		v = largePremiumMin + getRandomFloat()*largePremiumSpan
	default:
		v = jumboPremiumMin + getRandomFloat()*jumboPremiumSpan
	}
	return float64(int(v))
}

// generateClaims is zero for most policies and at most four.
func generateClaims() int {
	switch n := randomIndex(claimsDivisor); {
	case n < 5:
		return 0
	case n < 8:
		return 1
	case n < 9:
		return 2
	default:
		return 3 + randomIndex(2)
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
