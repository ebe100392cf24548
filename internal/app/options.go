package service

import (
	"time"

	"github.com/okian/brokerflow/internal/adapters/genai"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	"github.com/okian/brokerflow/internal/adapters/notify"
	"github.com/okian/brokerflow/internal/adapters/repository"
	"github.com/okian/brokerflow/internal/domain/brief"
	"github.com/okian/brokerflow/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithKV sets the persistence collaborator. Defaults to an in-memory store.
func WithKV(kv kvstore.Store) Option {
	return func(s *Service) {
		if kv != nil {
			s.kv = kv
		}
	}
}

// WithGenerator sets the brief generation collaborator.
func WithGenerator(g genai.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithContextSource sets where email context for prompts comes from.
func WithContextSource(src brief.ContextSource) Option {
	return func(s *Service) {
		if src != nil {
			s.contexts = src
		}
	}
}

// WithNotifier replaces the notification feed.
func WithNotifier(f *notify.Feed) Option {
	return func(s *Service) {
		if f != nil {
			s.notifier = f
		}
	}
}

// WithClock replaces the wall clock used for scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWorkerCount sets the number of brief workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting brief jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDefaultCredential is used when no credential was saved yet.
func WithDefaultCredential(key string) Option {
	return func(s *Service) {
		s.defaultCredential = key
	}
}

// WithStoreOptions passes options through to the policy store.
func WithStoreOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
