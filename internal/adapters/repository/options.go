package repository

import (
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithKey overrides the KV key the collection is mirrored to.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSeeds replaces the policies used when nothing was persisted yet.
func WithSeeds(seeds []model.Policy) Option {
	return func(s *Store) {
		s.seeds = append([]model.Policy(nil), seeds...)
	}
}

// WithDefaultImage sets the image assigned to newly added policies.
func WithDefaultImage(url string) Option {
	return func(s *Store) {
		if url != "" {
			s.defaultImage = url
		}
	}
}

// WithSourceIDFunc replaces the generator of external source references.
func WithSourceIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.sourceID = fn
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
