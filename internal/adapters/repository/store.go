// Package repository holds the ordered policy collection and mirrors it to
// the key-value persistence collaborator.
package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/okian/brokerflow/pkg/metrics"
)

// Defaults applied to new policies.
const (
	DefaultIndustry   = "General"
	DefaultPolicyType = "General Liability"
	maxSourceNumber   = 9999
)

// PolicyStore is the contract the application shell mutates through.
type PolicyStore interface {
	Load(ctx context.Context) error
	Add(ctx context.Context, in model.PolicyInput) (model.Policy, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (model.Policy, bool, error)
	Replace(ctx context.Context, p model.Policy) (model.Policy, error)
	Remove(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (model.Policy, error)
	List(ctx context.Context) []model.Policy
	Count(ctx context.Context) int
}

var _ PolicyStore = (*Store)(nil)

// Store keeps policies in insertion order. Every mutation writes the whole
// collection back as one JSON array; a failed write undoes the mutation.
type Store struct {
	mu       sync.RWMutex
	kv       kvstore.Store
	key      string
	policies []model.Policy

	seeds        []model.Policy
	defaultImage string
	sourceID     func() string
	logger       logger.Logger
}

// New creates a store backed by kv. Call Load before use.
func New(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:           kv,
		key:          kvstore.KeyPolicies,
		seeds:        SeedPolicies(),
		defaultImage: DefaultImage,
		sourceID: func() string {
			return fmt.Sprintf("SFDC-%d", rand.IntN(maxSourceNumber)) //nolint:gosec // display reference, not a secret
		},
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the collection. A missing key yields the seed policies, which
// are written back. An undecodable blob also yields the seeds, but the blob is
// left as is until the next mutation overwrites it.
func (s *Store) Load(ctx context.Context) error {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load policies: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !found {
		s.policies = cloneAll(s.seeds)
		if err := s.persistLocked(ctx); err != nil {
			s.logger.Warn(ctx, "could not persist seed policies", logger.Error(err))
		}
		s.logger.Info(ctx, "initialized policy store from seeds", logger.Int("count", len(s.policies)))
		metrics.UpdatePolicyCount(len(s.policies))
		return nil
	}

	var loaded []model.Policy
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		s.logger.Warn(ctx, "persisted policies are unreadable, using seeds",
			logger.String("key", s.key),
			logger.Error(err),
		)
		s.policies = cloneAll(s.seeds)
		metrics.UpdatePolicyCount(len(s.policies))
		return nil
	}

	s.policies = loaded
	if s.policies == nil {
		s.policies = []model.Policy{}
	}
	s.logger.Info(ctx, "loaded policies", logger.Int("count", len(s.policies)))
	metrics.UpdatePolicyCount(len(s.policies))
	return nil
}

// Add validates in, assigns the next free POL-NNN identifier and appends the
// new policy in Detected status.
func (s *Store) Add(ctx context.Context, in model.PolicyInput) (model.Policy, error) {
	if err := in.Validate(); err != nil {
		return model.Policy{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Policy{
		ID:         s.nextIDLocked(),
		Client:     strings.TrimSpace(in.Client),
		Industry:   orDefault(in.Industry, DefaultIndustry),
		Type:       orDefault(in.Type, DefaultPolicyType),
		Premium:    *in.Premium,
		ExpiryDate: in.ExpiryDate,
		Claims:     in.Claims,
		Status:     model.StatusDetected,
		SourceID:   strings.TrimSpace(in.SourceID),
		Image:      s.defaultImage,
	}
	if p.SourceID == "" {
		p.SourceID = s.sourceID()
	}

	s.policies = append(s.policies, p)
	if err := s.persistLocked(ctx); err != nil {
		s.policies = s.policies[:len(s.policies)-1]
		return model.Policy{}, err
	}

	metrics.RecordPolicyAdded()
	metrics.UpdatePolicyCount(len(s.policies))
	s.logger.Debug(ctx, "policy added", logger.String("policy_id", p.ID))
	return p, nil
}

// UpdateStatus replaces only the status of policy id and returns the record
// as it was before. An unknown id is a silent no-op reported as found=false.
// Transition rules are enforced by the caller.
func (s *Store) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Policy, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Policy{}, false, nil
	}
	prev := s.policies[i]
	if prev.Status == status {
		return prev, true, nil
	}

	s.policies[i].Status = status
	if err := s.persistLocked(ctx); err != nil {
		s.policies[i] = prev
		return prev, true, err
	}
	return prev, true, nil
}

// Replace overwrites the editable fields of an existing policy in place. The
// identifier and status are kept from the stored record.
func (s *Store) Replace(ctx context.Context, p model.Policy) (model.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(p.ID)
	if i < 0 {
		return model.Policy{}, fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	prev := s.policies[i]
	p.Status = prev.Status
	p.Client = strings.TrimSpace(p.Client)
	p.Industry = orDefault(p.Industry, prev.Industry)
	p.Type = orDefault(p.Type, prev.Type)
	p.SourceID = orDefault(p.SourceID, prev.SourceID)
	p.Image = orDefault(p.Image, prev.Image)
	if err := p.Validate(); err != nil {
		return model.Policy{}, err
	}

	s.policies[i] = p
	if err := s.persistLocked(ctx); err != nil {
		s.policies[i] = prev
		return model.Policy{}, err
	}
	return p, nil
}

// Remove deletes policy id. It reports whether anything was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	prev := s.policies
	next := make([]model.Policy, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)

	s.policies = next
	if err := s.persistLocked(ctx); err != nil {
		s.policies = prev
		return false, err
	}

	metrics.RecordPolicyRemoved()
	metrics.UpdatePolicyCount(len(s.policies))
	return true, nil
}

// Get returns policy id or ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Policy{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.policies[i], nil
}

// List returns a copy of the collection in insertion order.
func (s *Store) List(context.Context) []model.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.policies)
}

// Count returns the number of stored policies.
func (s *Store) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.policies)
}

// nextIDLocked derives the identifier from the current count and bumps it
// past any identifier still in use.
func (s *Store) nextIDLocked() string {
	for n := len(s.policies) + 1; ; n++ {
		id := fmt.Sprintf("POL-%03d", n)
		if s.indexLocked(id) < 0 {
			return id
		}
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.policies {
		if s.policies[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) error {
	blob, err := json.Marshal(s.policies)
	if err != nil {
		return fmt.Errorf("encode policies: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(blob)); err != nil {
		return fmt.Errorf("persist policies: %w", err)
	}
	return nil
}

func cloneAll(in []model.Policy) []model.Policy {
	out := make([]model.Policy, len(in))
	copy(out, in)
	return out
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
