// Package agent ties the periodic learning cycle and the continuous response
// rounds together on a single control thread, and guarantees the dedup cache
// is persisted once on shutdown.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"x-reply-bot/cache"
)

// Learner runs one learning cycle over all reference accounts.
type Learner interface {
	Run(ctx context.Context)
}

// Responder runs the response cycle for one monitored account.
type Responder interface {
	RunAccount(ctx context.Context, handle string) error
}

// Agent is the main loop. Learning fires immediately at startup and then on
// a fixed interval; response rounds run continuously over the monitored
// accounts, checking for due learning work before each account. There is no
// preemption: everything interleaves cooperatively on one thread.
type Agent struct {
	learner   Learner
	responder Responder
	dedup     *cache.DedupCache
	store     cache.Store
	clock     clockwork.Clock
	accounts  []string

	learningInterval time.Duration
	roundCooldown    time.Duration
	accountThrottle  time.Duration

	nextLearningAt time.Time
}

// Option configures an Agent.
type Option func(*Agent)

// WithLearningInterval sets the period between learning cycles.
func WithLearningInterval(d time.Duration) Option {
	return func(a *Agent) {
		a.learningInterval = d
	}
}

// WithRoundCooldown sets the pause after each full response round.
func WithRoundCooldown(d time.Duration) Option {
	return func(a *Agent) {
		a.roundCooldown = d
	}
}

// WithAccountThrottle sets the pause between accounts within a round.
func WithAccountThrottle(d time.Duration) Option {
	return func(a *Agent) {
		a.accountThrottle = d
	}
}

// New creates the agent over the monitored accounts.
func New(learner Learner, responder Responder, dedup *cache.DedupCache, store cache.Store, clock clockwork.Clock, accounts []string, opts ...Option) *Agent {
	a := &Agent{
		learner:          learner,
		responder:        responder,
		dedup:            dedup,
		store:            store,
		clock:            clock,
		accounts:         accounts,
		learningInterval: 10 * time.Minute,
		roundCooldown:    90 * time.Minute,
		accountThrottle:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the main loop until ctx is cancelled. The dedup cache is
// persisted exactly once before returning; this is the sole guaranteed
// durability point for the cache.
func (a *Agent) Run(ctx context.Context) {
	defer a.persistCache()

	// First learning cycle fires immediately; later cycles are computed
	// from process start, never restored across restarts.
	a.nextLearningAt = a.clock.Now()

	for {
		roundID := uuid.NewString()
		slog.Info("starting response round", "round_id", roundID, "accounts", len(a.accounts))

		for _, handle := range a.accounts {
			if ctx.Err() != nil {
				return
			}

			a.runLearningIfDue(ctx)

			slog.Info("responding to account", "round_id", roundID, "account", handle)
			if err := a.responder.RunAccount(ctx, handle); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("response cycle failed for account", "round_id", roundID, "account", handle, "error", err)
			}

			if err := a.sleep(ctx, a.accountThrottle); err != nil {
				return
			}
		}

		slog.Info("response round complete, cooling down", "round_id", roundID, "cooldown", a.roundCooldown)
		if err := a.sleep(ctx, a.roundCooldown); err != nil {
			return
		}
	}
}

func (a *Agent) runLearningIfDue(ctx context.Context) {
	now := a.clock.Now()
	if now.Before(a.nextLearningAt) {
		return
	}
	a.learner.Run(ctx)
	a.nextLearningAt = now.Add(a.learningInterval)
}

func (a *Agent) persistCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.dedup.Persist(ctx, a.store); err != nil {
		slog.Error("failed to persist response cache on shutdown", "error", err)
		return
	}
	slog.Info("response cache persisted", "entries", a.dedup.Len())
}

func (a *Agent) sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.clock.After(dur):
		return nil
	}
}
