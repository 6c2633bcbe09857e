package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/herald-notify/herald/internal/provider"
)

// State is the consumer lifecycle state.
type State string

// Consumer states. Idle and Draining alternate while the consumer runs;
// Stopped is terminal and entered only on an explicit shutdown signal.
const (
	StateIdle     State = "idle"
	StateDraining State = "draining"
	StateStopped  State = "stopped"
)

// idleTick is the fallback poll interval for spool changes the watcher
// missed (e.g. spool on a filesystem without inotify support).
const idleTick = 5 * time.Second

// Deliverer resolves one announcement through the provider chain.
// *provider.Chain satisfies it; tests substitute fakes.
type Deliverer interface {
	Deliver(ctx context.Context, text string) provider.Outcome
}

// Consumer drains the spool strictly FIFO, one entry fully resolved
// before the next is started. It is long-lived relative to producers:
// it keeps draining entries enqueued by processes that have long since
// exited.
type Consumer struct {
	spool  *Spool
	chain  Deliverer
	logger *slog.Logger
	state  State
}

// NewConsumer creates a consumer over the given spool and chain.
func NewConsumer(spool *Spool, chain Deliverer, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		spool:  spool,
		chain:  chain,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Consumer) State() State { return c.state }

// Run drains the spool until ctx is cancelled. Entries interrupted by a
// previous consumer crash are requeued first. The idle wait is woken by
// spool directory changes and is always interruptible by ctx.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.spool.Recover(); err != nil {
		c.logger.Warn("failed to recover interrupted entries", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.spool.Dir()); err != nil {
		return err
	}

	ticker := time.NewTicker(idleTick)
	defer ticker.Stop()

	for {
		c.DrainOnce(ctx)

		c.transition(StateIdle)
		select {
		case <-ctx.Done():
			c.transition(StateStopped)
			return nil
		case event := <-watcher.Events:
			// Only new pending entries matter; claims and removals
			// are our own doing.
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
		case err := <-watcher.Errors:
			c.logger.Warn("spool watcher error", "error", err)
		case <-ticker.C:
		}
	}
}

// DrainOnce resolves every currently pending entry in FIFO order and
// reports how many entries it retired. Playback of an in-flight entry
// is never cancelled; ctx is checked between entries only.
func (c *Consumer) DrainOnce(ctx context.Context) int {
	played := 0
	for {
		if ctx.Err() != nil {
			return played
		}

		claimed, err := c.spool.Claim()
		if err != nil {
			if !errors.Is(err, ErrSpoolEmpty) {
				c.logger.Error("failed to claim spool entry", "error", err)
			}
			return played
		}

		c.transition(StateDraining)
		c.play(ctx, claimed)
		played++
	}
}

// play resolves one claimed entry through the chain and retires it.
func (c *Consumer) play(ctx context.Context, claimed *Claimed) {
	req := claimed.Entry.Request

	// In-flight playback runs to its own timeout even during shutdown.
	outcome := c.chain.Deliver(context.WithoutCancel(ctx), req.Text)

	claimed.Entry.AttemptCount = outcome.Attempts
	if err := claimed.Update(); err != nil {
		c.logger.Debug("failed to persist attempt count", "id", req.ID, "error", err)
	}

	if outcome.Succeeded {
		c.logger.Info("playback complete",
			"id", req.ID,
			"event_kind", req.EventKind,
			"session_id", req.SessionID,
			"provider", outcome.Provider,
			"attempts", outcome.Attempts,
			"queued_for", time.Since(claimed.Entry.EnqueuedAt))
	} else {
		// Terminal failure: the producer has long returned, so the log
		// line is the only signal anyone gets.
		c.logger.Error("playback failed",
			"id", req.ID,
			"event_kind", req.EventKind,
			"session_id", req.SessionID,
			"error_kind", string(outcome.ErrorKind),
			"attempts", outcome.Attempts)
	}

	if err := claimed.Complete(); err != nil {
		c.logger.Warn("failed to retire spool entry", "id", req.ID, "error", err)
	}
}

func (c *Consumer) transition(next State) {
	if c.state == next {
		return
	}
	c.logger.Debug("consumer state", "from", string(c.state), "to", string(next))
	c.state = next
}
