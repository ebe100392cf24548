// Package loadgen drives a running BrokerFlow service with generated
// policies and checks the ranked view it serves back.
package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/pkg/logger"
)

// Run executes the complete load run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting brokerflow load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("policies", config.NumPolicies),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Float64("advanceRate", config.AdvanceRate),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate policies
	inputs, err := generatePolicies(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("policy generation failed: %w", err)
	}

	// Step 3: Submit concurrently
	created := submitPolicies(ctx, config, inputs, stats)

	// Step 4: Move part of the book through the workflow
	advanceStatuses(ctx, config, created, stats)

	// Step 5: Verify the ranked view
	weights, ranked, err := fetchRanking(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("ranking retrieval failed: %w", err)
	}
	if err := verifyRanking(weights, ranked, created); err != nil {
		return stats, fmt.Errorf("ranking verification failed: %w", err)
	}
	displayTopPolicies(ctx, ranked, config.TopN)

	// Step 6: Keep the generated inputs for replay
	if config.OutputFile != "" {
		if err := savePoliciesToFile(ctx, config.OutputFile, inputs); err != nil {
			log.Warn(ctx, "failed to save policies to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// savePoliciesToFile writes the generated inputs as a JSON array.
func savePoliciesToFile(ctx context.Context, filename string, inputs []model.PolicyInput) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no policies to save")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal policies: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "policies saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, policiesPerSecond float64
	if stats.PoliciesGenerated > 0 {
		successRate = float64(stats.PoliciesCreated) / float64(stats.PoliciesGenerated) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		policiesPerSecond = float64(stats.PoliciesCreated) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("policiesGenerated", stats.PoliciesGenerated),
		logger.Int("policiesCreated", stats.PoliciesCreated),
		logger.Int("policiesRejected", stats.PoliciesRejected),
		logger.Int("policiesFailed", stats.PoliciesFailed),
		logger.Int("statusAdvanced", stats.StatusAdvanced),
		logger.Int("statusFailed", stats.StatusFailed),
		logger.Int("rankedEntries", stats.RankedEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("policiesPerSecond", policiesPerSecond))
}
