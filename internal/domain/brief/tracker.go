package brief

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the stage of the current brief generation.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateAnalyzing State = "analyzing"
	StateComplete  State = "complete"
)

// Snapshot is a copy of the tracker's view of the latest request.
type Snapshot struct {
	RequestID string    `json:"requestId,omitempty"`
	PolicyID  string    `json:"policyId,omitempty"`
	State     State     `json:"state"`
	Brief     *Brief    `json:"brief,omitempty"`
	Fallback  bool      `json:"fallback"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracker follows the most recently submitted generation. A new Begin
// replaces the target; updates for older request IDs are ignored.
type Tracker struct {
	mu      sync.RWMutex
	current Snapshot
	now     func() time.Time
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.current = Snapshot{State: StateIdle, UpdatedAt: t.now()}
	return t
}

// Begin starts tracking a request for policyID and returns its ID.
func (t *Tracker) Begin(policyID string) string {
	id := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Snapshot{
		RequestID: id,
		PolicyID:  policyID,
		State:     StateFetching,
		UpdatedAt: t.now(),
	}
	return id
}

// Analyzing marks the request as waiting on the generator.
func (t *Tracker) Analyzing(requestID string) bool {
	return t.update(requestID, func(s *Snapshot) {
		s.State = StateAnalyzing
	})
}

// Complete stores the brief of the request.
func (t *Tracker) Complete(requestID string, b Brief, fallback bool) bool {
	return t.update(requestID, func(s *Snapshot) {
		s.State = StateComplete
		b.RecommendedActions = slices.Clone(b.RecommendedActions)
		b.KeyTalkingPoints = slices.Clone(b.KeyTalkingPoints)
		s.Brief = &b
		s.Fallback = fallback
	})
}

// Reset returns the tracker to idle after a failed request.
func (t *Tracker) Reset(requestID string) bool {
	return t.update(requestID, func(s *Snapshot) {
		s.State = StateIdle
		s.Brief = nil
		s.Fallback = false
	})
}

// IsCurrent reports whether requestID is the latest submission.
func (t *Tracker) IsCurrent(requestID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current.RequestID == requestID
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.current
	if s.Brief != nil {
		b := *s.Brief
		b.RecommendedActions = slices.Clone(b.RecommendedActions)
		b.KeyTalkingPoints = slices.Clone(b.KeyTalkingPoints)
		s.Brief = &b
	}
	return s
}

func (t *Tracker) update(requestID string, fn func(*Snapshot)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if requestID == "" || t.current.RequestID != requestID {
		return false
	}
	fn(&t.current)
	t.current.UpdatedAt = t.now()
	return true
}

// Job is one queued generation request.
type Job struct {
	RequestID   string
	PolicyID    string
	SubmittedAt time.Time
}
