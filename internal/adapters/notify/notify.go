// Package notify keeps a bounded feed of transient user-facing messages.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/okian/brokerflow/pkg/metrics"
)

// Severity tags a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

const defaultCapacity = 100

// Notification is one emitted message.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier emits messages. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// Feed is a Notifier that retains the most recent messages in a ring.
type Feed struct {
	mu       sync.RWMutex
	items    []Notification
	capacity int
	now      func() time.Time
	logger   logger.Logger
}

// Option applies a configuration option to the Feed.
type Option func(*Feed)

// WithCapacity bounds how many notifications are retained.
func WithCapacity(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.capacity = n
		}
	}
}

// WithLogger sets a custom logger for the feed.
func WithLogger(l logger.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFeed creates an empty feed.
func NewFeed(opts ...Option) *Feed {
	f := &Feed{
		capacity: defaultCapacity,
		now:      time.Now,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Notify implements Notifier.
func (f *Feed) Notify(ctx context.Context, message string, severity Severity) {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		CreatedAt: f.now(),
	}

	f.mu.Lock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}
	f.mu.Unlock()

	metrics.RecordNotification(string(severity))
	fields := []logger.Field{logger.String("severity", string(severity)), logger.String("notification_id", n.ID)}
	if severity == SeverityError {
		f.logger.Warn(ctx, message, fields...)
		return
	}
	f.logger.Info(ctx, message, fields...)
}

// Recent returns up to n notifications, newest first. n <= 0 returns all.
func (f *Feed) Recent(n int) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n <= 0 || n > len(f.items) {
		n = len(f.items)
	}
	out := make([]Notification, 0, n)
	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}
	return out
}

// Len returns the number of retained notifications.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}
