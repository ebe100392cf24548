// Package model contains the renewal domain types passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Status is the position of a policy in the renewal workflow.
type Status string

const (
	StatusDetected Status = "Detected"
	StatusAnalyzed Status = "Analyzed"
	StatusDrafted  Status = "Drafted"
	StatusSent     Status = "Sent"
)

// Statuses lists the workflow states in pipeline order.
func Statuses() []Status {
	return []Status{StatusDetected, StatusAnalyzed, StatusDrafted, StatusSent}
}

// Valid reports whether s is a known workflow state.
func (s Status) Valid() bool {
	switch s {
	case StatusDetected, StatusAnalyzed, StatusDrafted, StatusSent:
		return true
	}
	return false
}

// IsTerminal reports whether nothing may follow s.
func (s Status) IsTerminal() bool {
	return s == StatusSent
}

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Policy is one insurance contract tracked for renewal.
type Policy struct {
	ID         string  `json:"id"`
	Client     string  `json:"client"`
	Industry   string  `json:"industry"`
	Type       string  `json:"type"`
	Premium    float64 `json:"premium"`
	ExpiryDate Date    `json:"expiryDate"`
	Claims     int     `json:"claims"`
	Status     Status  `json:"status"`
	SourceID   string  `json:"sourceId"`
	Image      string  `json:"image"`
}

// Validate checks the record-level invariants.
func (p Policy) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: missing id", ErrValidation)
	case strings.TrimSpace(p.Client) == "":
		return fmt.Errorf("%w: missing client", ErrValidation)
	case math.IsNaN(p.Premium) || math.IsInf(p.Premium, 0) || p.Premium < 0:
		return fmt.Errorf("%w: premium must be a non-negative number", ErrValidation)
	case p.ExpiryDate.IsZero():
		return fmt.Errorf("%w: missing expiry date", ErrValidation)
	case p.Claims < 0:
		return fmt.Errorf("%w: claims must be non-negative", ErrValidation)
	case !p.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status)
	}
	return nil
}

// PolicyInput carries user-supplied fields for a new policy. Premium is a
// pointer so that a missing premium can be told apart from zero.
type PolicyInput struct {
	Client     string   `json:"client"`
	Industry   string   `json:"industry,omitempty"`
	Type       string   `json:"type,omitempty"`
	Premium    *float64 `json:"premium"`
	ExpiryDate Date     `json:"expiryDate"`
	Claims     int      `json:"claims"`
	SourceID   string   `json:"sourceId,omitempty"`
}

// Validate enforces the required fields: client, premium and expiry date.
func (in PolicyInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Client) == "":
		return fmt.Errorf("%w: client is required", ErrValidation)
	case in.Premium == nil:
		return fmt.Errorf("%w: premium is required", ErrValidation)
	case math.IsNaN(*in.Premium) || math.IsInf(*in.Premium, 0) || *in.Premium < 0:
		return fmt.Errorf("%w: premium must be a non-negative number", ErrValidation)
	case in.ExpiryDate.IsZero():
		return fmt.Errorf("%w: expiry date is required", ErrValidation)
	case in.Claims < 0:
		return fmt.Errorf("%w: claims must be non-negative", ErrValidation)
	}
	return nil
}

// ScoredPolicy is a policy plus its derived ranking fields. It is recomputed
// on every read and never persisted.
type ScoredPolicy struct {
	Policy
	Rank          int     `json:"rank"`
	DaysToExpiry  int     `json:"daysToExpiry"`
	PriorityScore float64 `json:"priorityScore"`
}
