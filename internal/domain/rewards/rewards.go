// Package rewards keeps the broker's coin balance. It observes pipeline
// events and never influences them.
package rewards

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/brokerflow/internal/domain/pipeline"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/okian/brokerflow/pkg/metrics"
)

// Coin amounts per activity.
const (
	CoinsPolicyAdded  = 1
	CoinsBriefCreated = 1
	CoinsPolicySent   = 2
)

// Store is the slice of the KV collaborator the ledger needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Ledger holds the balance and mirrors it to a KV key.
type Ledger struct {
	mu      sync.Mutex
	store   Store
	key     string
	balance int
	logger  logger.Logger
}

// NewLedger creates a ledger persisted under key.
func NewLedger(store Store, key string, l logger.Logger) *Ledger {
	if l == nil {
		l = logger.Nop()
	}
	return &Ledger{store: store, key: key, logger: l}
}

// Load reads the persisted balance. Missing or unreadable values count as 0.
func (l *Ledger) Load(ctx context.Context) error {
	raw, found, err := l.store.Get(ctx, l.key)
	if err != nil {
		return fmt.Errorf("load reward balance: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = 0
	if found {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			l.balance = n
		}
	}
	metrics.UpdateRewardBalance(l.balance)
	return nil
}

// Balance returns the current coin count.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Credit adds amount coins and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, amount int, reason string) (int, error) {
	if amount <= 0 {
		return l.Balance(), nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.setLocked(ctx, l.balance+amount); err != nil {
		return l.balance, err
	}
	l.logger.Debug(ctx, "coins credited",
		logger.Int("amount", amount),
		logger.String("reason", reason),
		logger.Int("balance", l.balance),
	)
	return l.balance, nil
}

// OnTransition implements pipeline.Observer.
func (l *Ledger) OnTransition(ctx context.Context, e pipeline.Event) {
	if !e.Rewardable {
		return
	}
	if _, err := l.Credit(ctx, CoinsPolicySent, "policy sent"); err != nil {
		l.logger.Warn(ctx, "could not credit coins",
			logger.String("policy_id", e.PolicyID),
			logger.Error(err),
		)
	}
}

func (l *Ledger) setLocked(ctx context.Context, balance int) error {
	if err := l.store.Set(ctx, l.key, strconv.Itoa(balance)); err != nil {
		return fmt.Errorf("persist reward balance: %w", err)
	}
	l.balance = balance
	metrics.UpdateRewardBalance(balance)
	return nil
}
