package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Chain is the fallback selector: it walks the registry in priority
// order until one provider speaks the text or all are exhausted.
//
// Deliver never returns a Go error. Backends are flaky third-party
// integrations; their failures are captured as Outcome data and logged,
// and the system's value is the ordered redundancy, not any one backend.
type Chain struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChain creates a fallback selector with a per-attempt timeout.
func NewChain(registry *Registry, timeout time.Duration, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Deliver speaks text through the first provider that succeeds.
// At most one provider plays the text; the rest of the chain is only
// consulted after a failure or timeout.
func (c *Chain) Deliver(ctx context.Context, text string) Outcome {
	attempts := 0

	for _, p := range c.registry.All() {
		if err := p.Available(); err != nil {
			c.logger.Debug("provider unavailable", "provider", p.Name(), "reason", err)
			continue
		}

		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		err := p.Speak(attemptCtx, text)
		cancel()

		if err == nil {
			c.logger.Info("provider attempt succeeded",
				"provider", p.Name(), "attempt", attempts, "duration", time.Since(start))
			return Outcome{Provider: p.Name(), Succeeded: true, Attempts: attempts}
		}

		kind := classify(err)
		c.logger.Warn("provider attempt failed",
			"provider", p.Name(), "attempt", attempts, "error_kind", string(kind), "error", err)
	}

	kind := ErrorExhausted
	if attempts == 0 {
		// Nothing was even invoked: no credential, no binary. Kept
		// distinguishable in the trail for operator diagnosis.
		kind = ErrorUnavailable
	}
	c.logger.Error("all providers exhausted", "attempts", attempts, "error_kind", string(kind))
	return Outcome{Succeeded: false, ErrorKind: kind, Attempts: attempts}
}

// classify maps a Speak error to its taxonomy bucket.
func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorRuntime
}
