package repository

import (
	"time"

	"github.com/okian/brokerflow/internal/domain/model"
)

// DefaultImage is assigned to policies added without one.
const DefaultImage = "https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?auto=format&fit=crop&q=80&w=200&h=200"

func unsplash(photo string) string {
	return "https://images.unsplash.com/photo-" + photo + "?auto=format&fit=crop&q=80&w=200&h=200"
}

// SeedPolicies returns the example book of business loaded on first start.
func SeedPolicies() []model.Policy {
	return []model.Policy{
		{
			ID:         "POL-001",
			Client:     "Acme Corp",
			Industry:   "Technology",
			Type:       "Cyber Liability",
			Premium:    45000,
			ExpiryDate: model.NewDate(2025, time.May, 15),
			Claims:     0,
			Status:     model.StatusDetected,
			SourceID:   "SFDC-9921",
			Image:      unsplash("1486406146926-c627a92ad1ab"),
		},
		{
			ID:         "POL-002",
			Client:     "Globex Inc",
			Industry:   "Logistics",
			Type:       "General Liability",
			Premium:    12500,
			ExpiryDate: model.NewDate(2025, time.April, 20),
			Claims:     2,
			Status:     model.StatusAnalyzed,
			SourceID:   "SFDC-3321",
			Image:      unsplash("1581091226825-a6a2a5aee158"),
		},
		{
			ID:         "POL-003",
			Client:     "Soylent Corp",
			Industry:   "Manufacturing",
			Type:       "Workers Comp",
			Premium:    82000,
			ExpiryDate: model.NewDate(2025, time.May, 1),
			Claims:     1,
			Status:     model.StatusDrafted,
			SourceID:   "SFDC-1102",
			Image:      unsplash("1504917595217-d4dc5ebe6122"),
		},
		{
			ID:         "POL-004",
			Client:     "Umbrella Corp",
			Industry:   "Real Estate",
			Type:       "Property",
			Premium:    150000,
			ExpiryDate: model.NewDate(2025, time.April, 10),
			Claims:     5,
			Status:     model.StatusDetected,
			SourceID:   "SFDC-5511",
			Image:      unsplash("1497366216548-37526070297c"),
		},
		{
			ID:         "POL-005",
			Client:     "Stark Ind",
			Industry:   "Defense",
			Type:       "D&O",
			Premium:    220000,
			ExpiryDate: model.NewDate(2025, time.June, 1),
			Claims:     0,
			Status:     model.StatusSent,
			SourceID:   "SFDC-8822",
			Image:      unsplash("1483058712412-4245e9b90334"),
		},
	}
}
