package loadgen

import (
	"time"

	"github.com/okian/brokerflow/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumPolicies int           // Number of policies to create
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	AdvanceRate float64       // Share of created policies moved to Drafted
	TopN        int           // Number of ranked entries to print
	OutputFile  string        // Output file for generated policies
	Verbose     bool          // Enable verbose logging
}

// rankedPage mirrors the GET /api/policies response.
type rankedPage struct {
	Items []model.ScoredPolicy `json:"items"`
	Total int                  `json:"total"`
}

// Stats holds run statistics.
type Stats struct {
	PoliciesGenerated int
	PoliciesCreated   int
	PoliciesRejected  int
	PoliciesFailed    int
	StatusAdvanced    int
	StatusFailed      int
	RankedEntries     int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
