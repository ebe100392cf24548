package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/brokerflow/internal/adapters/mq/queue"
	"github.com/okian/brokerflow/internal/adapters/notify"
	"github.com/okian/brokerflow/internal/domain/brief"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/internal/domain/pipeline"
	"github.com/okian/brokerflow/internal/domain/rewards"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/okian/brokerflow/pkg/metrics"
)

// Brief outcome labels.
const (
	outcomeParsed     = "parsed"
	outcomeFallback   = "fallback"
	outcomeFailed     = "failed"
	outcomeSuperseded = "superseded"
)

// RequestBrief queues a brief for policy id and returns the request ID. The
// tracker follows only the latest request.
func (s *Service) RequestBrief(ctx context.Context, id string) (string, error) {
	if !s.HasCredential() {
		s.notifier.Notify(ctx, msgMissingCredential, notify.SeverityError)
		return "", ErrMissingCredential
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return "", err
	}

	s.mu.RLock()
	jobs, started := s.jobs, s.started
	s.mu.RUnlock()
	if !started {
		return "", ErrNotStarted
	}

	requestID := s.tracker.Begin(id)
	job := queue.Job{RequestID: requestID, PolicyID: id, SubmittedAt: s.now()}
	if err := jobs.Enqueue(ctx, job); err != nil {
		s.tracker.Reset(requestID)
		s.notifier.Notify(ctx, msgQueueFull, notify.SeverityError)
		s.logger.Warn(ctx, "could not queue brief",
			logger.String("policy_id", id),
			logger.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	metrics.RecordBriefRequested()
	s.logger.Debug(ctx, "brief queued",
		logger.String("policy_id", id),
		logger.String("request_id", requestID),
	)
	return requestID, nil
}

// Brief returns the tracker's view of the latest request.
func (s *Service) Brief() brief.Snapshot {
	return s.tracker.Snapshot()
}

// processBrief runs one queued job on a worker.
func (s *Service) processBrief(ctx context.Context, j queue.Job) error {
	s.tracker.Analyzing(j.RequestID)

	p, err := s.store.Get(ctx, j.PolicyID)
	if err != nil {
		s.failBrief(ctx, j, err)
		return nil
	}

	prompt := brief.BuildPrompt(p, s.contexts.Lookup(p.ID))
	text, err := s.generator.Generate(ctx, prompt, s.currentCredential())
	if err != nil {
		s.failBrief(ctx, j, err)
		return nil
	}

	b, ok := brief.Parse(text)
	current := s.tracker.Complete(j.RequestID, b, !ok)
	switch {
	case !current:
		metrics.RecordBriefOutcome(outcomeSuperseded)
	case ok:
		metrics.RecordBriefOutcome(outcomeParsed)
	default:
		metrics.RecordBriefOutcome(outcomeFallback)
	}

	s.advanceToAnalyzed(ctx, j.PolicyID)

	if _, err := s.ledger.Credit(ctx, rewards.CoinsBriefCreated, "brief created"); err != nil {
		s.logger.Warn(ctx, "could not credit coins", logger.Error(err))
	}
	if ok {
		s.notifier.Notify(ctx, msgBriefComplete, notify.SeveritySuccess)
	} else {
		s.notifier.Notify(ctx, msgBriefFallback, notify.SeverityInfo)
	}

	s.logger.Info(ctx, "brief generated",
		logger.String("policy_id", j.PolicyID),
		logger.String("request_id", j.RequestID),
		logger.Bool("fallback", !ok),
		logger.Bool("current", current),
		logger.Duration("elapsed", time.Since(j.SubmittedAt)),
	)
	return nil
}

// advanceToAnalyzed moves the policy to Analyzed when the workflow allows it.
// Policies already past Detected keep their status.
func (s *Service) advanceToAnalyzed(ctx context.Context, id string) {
	s.mu.Lock()
	change, event, err := s.applyStatusLocked(ctx, id, model.StatusAnalyzed)
	s.mu.Unlock()

	switch {
	case errors.Is(err, pipeline.ErrInvalidTransition):
		s.logger.Debug(ctx, "brief left status unchanged",
			logger.String("policy_id", id),
			logger.String("status", string(change.From)),
		)
	case err != nil:
		s.logger.Warn(ctx, "could not mark policy analyzed",
			logger.String("policy_id", id),
			logger.Error(err),
		)
	case change.Changed:
		s.publish(ctx, event)
	}
}

func (s *Service) failBrief(ctx context.Context, j queue.Job, err error) {
	s.tracker.Reset(j.RequestID)
	metrics.RecordBriefOutcome(outcomeFailed)
	s.notifier.Notify(ctx, msgBriefFailed, notify.SeverityError)
	s.logger.Error(ctx, "brief generation failed",
		logger.String("policy_id", j.PolicyID),
		logger.String("request_id", j.RequestID),
		logger.Error(err),
	)
}
