// Package pipeline holds the renewal status state machine.
//
// The allowed moves are:
//
//	Detected -> Analyzed            (brief generated)
//	Detected|Analyzed -> Drafted    (user drafts, analysis may be skipped)
//	any non-Sent -> Sent            (user sends)
//
// Re-applying the current status is a no-op. Nothing leaves Sent.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/brokerflow/internal/domain/model"
)

// ErrInvalidTransition is returned for moves the workflow does not define.
var ErrInvalidTransition = errors.New("invalid status transition")

// Transition is the outcome of applying a status change.
type Transition struct {
	From    model.Status
	To      model.Status
	Changed bool
}

// Apply validates a move from one status to another. Applying the current
// status returns Changed=false and no error.
func Apply(from, to model.Status) (Transition, error) {
	if !from.Valid() || !to.Valid() {
		return Transition{From: from, To: to}, fmt.Errorf("%w: unknown status %q -> %q", ErrInvalidTransition, from, to)
	}
	if from == to {
		return Transition{From: from, To: to}, nil
	}
	if !Allowed(from, to) {
		return Transition{From: from, To: to}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return Transition{From: from, To: to, Changed: true}, nil
}

// Allowed reports whether from -> to is a defined state change.
func Allowed(from, to model.Status) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case model.StatusAnalyzed:
		return from == model.StatusDetected
	case model.StatusDrafted:
		return from == model.StatusDetected || from == model.StatusAnalyzed
	case model.StatusSent:
		return true
	}
	return false
}

// Next lists the statuses reachable from s in one step.
func Next(s model.Status) []model.Status {
	var out []model.Status
	for _, to := range model.Statuses() {
		if to != s && Allowed(s, to) {
			out = append(out, to)
		}
	}
	return out
}

// Event reports an applied status change to observers.
type Event struct {
	PolicyID   string       `json:"policyId"`
	From       model.Status `json:"from"`
	To         model.Status `json:"to"`
	Rewardable bool         `json:"rewardable"`
}

// NewEvent builds the observer event for a changed transition.
func NewEvent(policyID string, t Transition) Event {
	return Event{
		PolicyID:   policyID,
		From:       t.From,
		To:         t.To,
		Rewardable: t.To == model.StatusSent,
	}
}

// Message is the human-readable notification text for e.
func (e Event) Message() string {
	if e.To == model.StatusSent {
		return fmt.Sprintf("Policy %s sent! +2 Broker Coins earned!", e.PolicyID)
	}
	return fmt.Sprintf("Policy %s status updated to %s", e.PolicyID, e.To)
}

// Observer receives applied transitions.
type Observer interface {
	OnTransition(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Event)

// OnTransition calls f(ctx, e).
func (f ObserverFunc) OnTransition(ctx context.Context, e Event) { f(ctx, e) }
