// Package service is the state-holding shell around the renewal engine. It
// owns every mutation and calls the pure scoring, ranking and pipeline
// functions on each read.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/adapters/genai"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	"github.com/okian/brokerflow/internal/adapters/mq/queue"
	"github.com/okian/brokerflow/internal/adapters/mq/worker"
	"github.com/okian/brokerflow/internal/adapters/notify"
	"github.com/okian/brokerflow/internal/adapters/repository"
	"github.com/okian/brokerflow/internal/domain/brief"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/internal/domain/negotiation"
	"github.com/okian/brokerflow/internal/domain/pipeline"
	"github.com/okian/brokerflow/internal/domain/ranking"
	"github.com/okian/brokerflow/internal/domain/rewards"
	"github.com/okian/brokerflow/internal/domain/scoring"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/okian/brokerflow/pkg/metrics"
)

const (
	defaultWorkerCount = 1
	defaultQueueSize   = 64
	stopTimeout        = 10 * time.Second
)

// Notification texts.
const (
	msgPolicyAdded       = "Policy added successfully! +1 Broker Coin earned!"
	msgMissingFields     = "Please fill in all required fields"
	msgMissingCredential = "Please set your Gemini API key in Settings"
	msgBriefFailed       = "Failed to generate analysis"
	msgBriefComplete     = "Analysis complete! +1 Broker Coin earned!"
	msgBriefFallback     = "Analysis complete with formatting adjustments! +1 Broker Coin earned!"
	msgQueueFull         = "Brief generation is busy, try again shortly"
)

// StatusChange is the outcome of a status update request.
type StatusChange struct {
	Policy  model.Policy `json:"policy"`
	From    model.Status `json:"from"`
	To      model.Status `json:"to"`
	Changed bool         `json:"changed"`
}

// Service implements the API dependencies of the renewal dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	kv        kvstore.Store
	store     repository.PolicyStore
	scorer    *scoring.Scorer
	tracker   *brief.Tracker
	contexts  brief.ContextSource
	generator genai.Generator
	notifier  *notify.Feed
	ledger    *rewards.Ledger
	observers []pipeline.Observer
	jobs      *queue.InMemoryQueue
	pool      *worker.Pool

	// State guarded by mu
	weights           model.Weights
	credential        string
	defaultCredential string
	prefs             Preferences

	// Configuration
	workerCount int
	queueSize   int
	storeOpts   []repository.Option
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		kv:          kvstore.NewMemory(),
		contexts:    brief.SeedContext(),
		generator:   genai.NewClient(),
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		weights:     model.DefaultWeights(),
		prefs:       DefaultPreferences(),
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewFeed(notify.WithLogger(s.logger.Named("notify")))
	}
	s.scorer = scoring.NewScorer(scoring.WithClock(s.now))
	s.tracker = brief.NewTracker()
	s.store = repository.New(s.kv, append([]repository.Option{
		repository.WithLogger(s.logger.Named("store")),
	}, s.storeOpts...)...)
	s.ledger = rewards.NewLedger(s.kv, kvstore.KeyCoins, s.logger.Named("rewards"))
	s.observers = []pipeline.Observer{s.ledger}
	return s
}

// Start loads persisted state and starts the brief workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting renewal service...")

	if err := s.store.Load(ctx); err != nil {
		return err
	}
	if err := s.ledger.Load(ctx); err != nil {
		return err
	}
	if err := s.loadSettingsLocked(ctx); err != nil {
		return err
	}

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, worker.ProcessorFunc(s.processBrief), s.logger)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "renewal service started",
		logger.Int("policies", s.store.Count(ctx)),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains queued brief jobs and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool := s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping renewal service...")
	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := pool.Shutdown(stopCtx); err != nil {
		return err
	}
	s.logger.Info(ctx, "renewal service stopped")
	return nil
}

// AddPolicy creates a new policy in Detected status.
func (s *Service) AddPolicy(ctx context.Context, in model.PolicyInput) (model.Policy, error) {
	p, err := s.store.Add(ctx, in)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			s.notifier.Notify(ctx, msgMissingFields, notify.SeverityError)
		}
		return model.Policy{}, err
	}
	if _, err := s.ledger.Credit(ctx, rewards.CoinsPolicyAdded, "policy added"); err != nil {
		s.logger.Warn(ctx, "could not credit coins", logger.Error(err))
	}
	s.notifier.Notify(ctx, msgPolicyAdded, notify.SeveritySuccess)
	s.logger.Info(ctx, "policy added",
		logger.String("policy_id", p.ID),
		logger.String("client", p.Client),
	)
	return p, nil
}

// ReplacePolicy overwrites the editable fields of a policy.
func (s *Service) ReplacePolicy(ctx context.Context, p model.Policy) (model.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Replace(ctx, p)
}

// RemovePolicy deletes a policy. Unknown ids yield repository.ErrNotFound.
func (s *Service) RemovePolicy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	s.logger.Info(ctx, "policy removed", logger.String("policy_id", id))
	return nil
}

// UpdateStatus moves a policy through the renewal workflow. Re-applying the
// current status succeeds with Changed=false and fires no side effects.
func (s *Service) UpdateStatus(ctx context.Context, id string, to model.Status) (StatusChange, error) {
	s.mu.Lock()
	change, event, err := s.applyStatusLocked(ctx, id, to)
	s.mu.Unlock()
	if err != nil {
		return change, err
	}
	if change.Changed {
		s.publish(ctx, event)
	}
	return change, nil
}

func (s *Service) applyStatusLocked(ctx context.Context, id string, to model.Status) (StatusChange, pipeline.Event, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return StatusChange{}, pipeline.Event{}, err
	}

	tr, err := pipeline.Apply(current.Status, to)
	if err != nil {
		metrics.RecordRejectedTransition(string(current.Status), string(to))
		return StatusChange{Policy: current, From: current.Status, To: to}, pipeline.Event{}, err
	}
	change := StatusChange{Policy: current, From: tr.From, To: tr.To}
	if !tr.Changed {
		return change, pipeline.Event{}, nil
	}

	if _, _, err := s.store.UpdateStatus(ctx, id, to); err != nil {
		return change, pipeline.Event{}, err
	}
	change.Changed = true
	change.Policy.Status = to
	metrics.RecordStatusTransition(string(tr.From), string(tr.To))
	return change, pipeline.NewEvent(id, tr), nil
}

// publish reports an applied transition to the notifier and observers.
func (s *Service) publish(ctx context.Context, e pipeline.Event) {
	s.logger.Info(ctx, "status changed",
		logger.String("policy_id", e.PolicyID),
		logger.String("from", string(e.From)),
		logger.String("to", string(e.To)),
	)
	s.notifier.Notify(ctx, e.Message(), notify.SeveritySuccess)
	for _, o := range s.observers {
		o.OnTransition(ctx, e)
	}
}

// Ranked returns the priority view, recomputed now. limit <= 0 means all.
func (s *Service) Ranked(ctx context.Context, limit int) []model.ScoredPolicy {
	s.mu.RLock()
	w := s.weights
	s.mu.RUnlock()
	return ranking.Top(ranking.Rank(s.store.List(ctx), w, s.scorer), limit)
}

// Policy returns one policy with its current score and rank.
func (s *Service) Policy(ctx context.Context, id string) (model.ScoredPolicy, error) {
	for _, p := range s.Ranked(ctx, 0) {
		if p.ID == id {
			return p, nil
		}
	}
	return model.ScoredPolicy{}, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
}

// Explain returns the score components of one policy.
func (s *Service) Explain(ctx context.Context, id string) (scoring.Breakdown, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	return s.scorer.Explain(p), nil
}

// Summary returns dashboard aggregates over the current ranking.
func (s *Service) Summary(ctx context.Context) ranking.Summary {
	return ranking.Summarize(s.Ranked(ctx, 0))
}

// Weights returns the current weight configuration.
func (s *Service) Weights() model.Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights
}

// SetWeights validates, persists and applies a new weight configuration.
func (s *Service) SetWeights(ctx context.Context, w model.Weights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	blob, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, kvstore.KeyWeights, string(blob)); err != nil {
		return fmt.Errorf("persist weights: %w", err)
	}
	s.weights = w
	s.logger.Debug(ctx, "weights updated",
		logger.Float64("premium", w.Premium),
		logger.Float64("time", w.Time),
		logger.Float64("claims", w.Claims),
	)
	return nil
}

// Simulate runs the negotiation model. It never reads or writes policies.
func (s *Service) Simulate(in negotiation.Input) (negotiation.Result, error) {
	return negotiation.Simulate(in)
}

// Notifications returns the newest notifications first.
func (s *Service) Notifications(n int) []notify.Notification {
	return s.notifier.Recent(n)
}

// Rewards returns the current coin balance.
func (s *Service) Rewards() int {
	return s.ledger.Balance()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"policies":    s.store.Count(ctx),
		"coins":       s.ledger.Balance(),
		"briefState":  s.tracker.Snapshot().State,
	}
	if s.started {
		stats["queueLength"] = s.jobs.Len(ctx)
	}
	return stats
}
