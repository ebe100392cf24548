package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/pkg/logger"
)

// Display preference defaults.
const (
	DefaultCurrency = "USD"
	DefaultTimezone = "EST"
)

// Currencies lists the selectable display currencies.
func Currencies() []string {
	return []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD"}
}

// Timezones lists the selectable display timezones.
func Timezones() []string {
	return []string{"UTC", "EST", "PST", "GMT", "CET", "JST", "AEST"}
}

// Preferences are display settings persisted for the dashboard. The service
// stores them but never converts values.
type Preferences struct {
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

// DefaultPreferences returns USD and EST.
func DefaultPreferences() Preferences {
	return Preferences{Currency: DefaultCurrency, Timezone: DefaultTimezone}
}

// Validate checks both values against the selectable lists.
func (p Preferences) Validate() error {
	if !slices.Contains(Currencies(), p.Currency) {
		return fmt.Errorf("%w: unsupported currency %q", model.ErrValidation, p.Currency)
	}
	if !slices.Contains(Timezones(), p.Timezone) {
		return fmt.Errorf("%w: unsupported timezone %q", model.ErrValidation, p.Timezone)
	}
	return nil
}

// Preferences returns the stored display preferences.
func (s *Service) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SetPreferences validates and persists display preferences.
func (s *Service) SetPreferences(ctx context.Context, p Preferences) error {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.Timezone = strings.ToUpper(strings.TrimSpace(p.Timezone))
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, kvstore.KeyCurrency, p.Currency); err != nil {
		return fmt.Errorf("persist currency: %w", err)
	}
	if err := s.kv.Set(ctx, kvstore.KeyTimezone, p.Timezone); err != nil {
		return fmt.Errorf("persist timezone: %w", err)
	}
	s.prefs = p
	return nil
}

// SetCredential persists the generation credential. An empty value clears it.
func (s *Service) SetCredential(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, kvstore.KeyCredential, key); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	s.credential = key
	s.logger.Info(ctx, "generation credential updated", logger.Bool("set", key != ""))
	return nil
}

// HasCredential reports whether a brief can be requested.
func (s *Service) HasCredential() bool {
	return s.currentCredential() != ""
}

func (s *Service) currentCredential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential != "" {
		return s.credential
	}
	return s.defaultCredential
}

// loadSettingsLocked restores weights, preferences and the credential.
// Absent or invalid values keep the defaults.
func (s *Service) loadSettingsLocked(ctx context.Context) error {
	raw, found, err := s.kv.Get(ctx, kvstore.KeyWeights)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	if found {
		var w model.Weights
		switch err := json.Unmarshal([]byte(raw), &w); {
		case err != nil:
			s.logger.Warn(ctx, "persisted weights are unreadable, using defaults", logger.Error(err))
		case w.Validate() != nil:
			s.logger.Warn(ctx, "persisted weights are invalid, using defaults", logger.Error(w.Validate()))
		default:
			s.weights = w
		}
	}

	prefs := DefaultPreferences()
	if v, ok, err := s.kv.Get(ctx, kvstore.KeyCurrency); err != nil {
		return fmt.Errorf("load currency: %w", err)
	} else if ok && slices.Contains(Currencies(), v) {
		prefs.Currency = v
	}
	if v, ok, err := s.kv.Get(ctx, kvstore.KeyTimezone); err != nil {
		return fmt.Errorf("load timezone: %w", err)
	} else if ok && slices.Contains(Timezones(), v) {
		prefs.Timezone = v
	}
	s.prefs = prefs

	key, _, err := s.kv.Get(ctx, kvstore.KeyCredential)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	s.credential = key
	return nil
}
