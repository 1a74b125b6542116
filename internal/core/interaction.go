package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default interaction policy values.
const (
	DefaultInitialBackoff     = 10 * time.Millisecond
	DefaultMaxBackoff         = 500 * time.Millisecond
	DefaultInteractionTimeout = 30 * time.Second
)

// restoreAttempts bounds how often restoring interactive mode is retried.
const restoreAttempts = 3

var errStillInteractive = errors.New("host still interactive")

// InteractionPolicy bounds how long a mutation waits for the host to accept
// non-interactive mode.
type InteractionPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

// DefaultInteractionPolicy returns the policy used when none is configured.
func DefaultInteractionPolicy() InteractionPolicy {
	return InteractionPolicy{
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Timeout:        DefaultInteractionTimeout,
	}
}

func (p InteractionPolicy) withDefaults() InteractionPolicy {
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = DefaultInitialBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = max(DefaultMaxBackoff, p.InitialBackoff)
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultInteractionTimeout
	}
	return p
}

// InteractionGuard suppresses host interaction for the duration of a
// mutation so users cannot edit the workbook mid-write.
type InteractionGuard struct {
	host   Host
	policy InteractionPolicy
	logger *slog.Logger
}

// NewInteractionGuard creates a guard for host. Zero policy fields take the
// defaults.
func NewInteractionGuard(host Host, policy InteractionPolicy, logger *slog.Logger) *InteractionGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionGuard{
		host:   host,
		policy: policy.withDefaults(),
		logger: logger,
	}
}

// Policy returns the effective policy.
func (g *InteractionGuard) Policy() InteractionPolicy {
	return g.policy
}

// Suppress switches the host to non-interactive mode, retrying with capped
// exponential backoff until the host accepts or the policy timeout expires.
// The returned restore func must be called once the mutation finishes,
// whether it succeeded or not.
func (g *InteractionGuard) Suppress(ctx context.Context) (restore func() error, err error) {
	b := retry.NewExponential(g.policy.InitialBackoff)
	b = retry.WithCappedDuration(g.policy.MaxBackoff, b)
	b = retry.WithMaxDuration(g.policy.Timeout, b)

	attempts := 0
	start := time.Now()
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		on, err := g.host.Interactive()
		if err != nil {
			return retry.RetryableError(err)
		}
		if !on {
			return nil
		}
		if err := g.host.SetInteractive(false); err != nil {
			return retry.RetryableError(err)
		}
		if on, err = g.host.Interactive(); err == nil && !on {
			return nil
		}
		return retry.RetryableError(errStillInteractive)
	})
	if err != nil {
		// A failed attempt may have partly applied; leave the host usable.
		if rerr := g.restore(); rerr != nil {
			g.logger.Warn("restore interactive mode after failed suppress", "error", rerr)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("suppress interaction: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w after %d attempts in %s: %v",
			ErrInteractionTimeout, attempts, time.Since(start).Round(time.Millisecond), err)
	}

	if attempts > 1 {
		g.logger.Debug("host accepted non-interactive mode", "attempts", attempts)
	}
	return g.restore, nil
}

// restore sets the host back to interactive mode. It does not observe the
// caller's context: it runs after cancellation too.
func (g *InteractionGuard) restore() error {
	b := retry.WithMaxRetries(restoreAttempts, retry.NewConstant(g.policy.InitialBackoff))
	return retry.Do(context.Background(), b, func(context.Context) error {
		if err := g.host.SetInteractive(true); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
