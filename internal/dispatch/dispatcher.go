// Package dispatch is the public entry point invoked once per lifecycle
// event. It applies skip rules, obtains the spoken text, and enqueues it
// for the asynchronous consumer.
//
// Nothing below this boundary may fail the invoking hook process: the
// hook's exit status reflects only its own execution, never whether an
// announcement was eventually heard.
package dispatch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/herald-notify/herald/internal/config"
	"github.com/herald-notify/herald/internal/model"
	"github.com/herald-notify/herald/internal/queue"
	"github.com/herald-notify/herald/internal/transcript"
)

// routineNotification is the host's idle ping; announcing it every time
// would be pure noise.
const routineNotification = "Claude is waiting for your input"

// Summarizer produces the spoken text for an event. Never fails.
type Summarizer interface {
	Summarize(ctx context.Context, kind model.EventKind, payload model.Payload) string
}

// Dispatcher turns lifecycle events into queued announcements.
type Dispatcher struct {
	enabled    bool
	skipSet    map[model.EventKind]struct{}
	debounce   time.Duration
	stateDir   string
	lockPath   string
	summarizer Summarizer
	spool      *queue.Spool
	logger     *slog.Logger

	// ensureConsumer is swapped out in tests.
	ensureConsumer func(lockPath string, logger *slog.Logger) error
}

// New creates a dispatcher.
func New(cfg *config.Config, summarizer Summarizer, spool *queue.Spool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		enabled:        cfg.TTS.Enabled,
		skipSet:        cfg.SkipSet(),
		debounce:       cfg.SubagentDebounce(),
		stateDir:       config.StatePath(),
		lockPath:       config.LockPath(),
		summarizer:     summarizer,
		spool:          spool,
		logger:         logger,
		ensureConsumer: queue.EnsureConsumer,
	}
}

// Notify handles one lifecycle event. It returns promptly, before any
// audio plays, and never reports delivery problems to the caller; every
// failure ends up in the log and nowhere else.
func (d *Dispatcher) Notify(ctx context.Context, kind model.EventKind, payload model.Payload) {
	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	logger := d.logger.With("event_kind", kind, "session_id", payload.SessionID)

	// Session statistics go to the trail even when the event itself is
	// skipped or disabled.
	if kind == model.EventSessionEnd && payload.TranscriptPath != "" {
		logger.Info("session statistics",
			"messages", transcript.CountMessages(payload.TranscriptPath),
			"reason", payload.Reason)
	}

	if !d.enabled {
		logger.Debug("dispatch skipped: tts disabled")
		return
	}

	if _, skip := d.skipSet[kind]; skip {
		logger.Debug("dispatch skipped: event in skip set")
		return
	}

	if kind == model.EventNotification && payload.Message == routineNotification {
		logger.Debug("dispatch skipped: routine notification")
		return
	}

	if kind == model.EventSubagentStop && d.debounced(payload.SessionID) {
		logger.Debug("dispatch skipped: debounced", "interval", d.debounce)
		return
	}

	text := d.summarizer.Summarize(ctx, kind, payload)
	if strings.TrimSpace(text) == "" {
		logger.Debug("dispatch skipped: nothing to say")
		return
	}

	req, err := model.NewRequest(kind, text, payload.SessionID)
	if err != nil {
		logger.Error("failed to build request", "error", err)
		return
	}

	if err := d.spool.Enqueue(model.NewQueueEntry(*req)); err != nil {
		// Unwritable spool is a local environment problem; the
		// announcement is dropped, the hook still succeeds.
		logger.Error("queue write failure, request dropped", "id", req.ID, "error", err)
		return
	}

	logger.Info("request enqueued", "id", req.ID, "text", text)

	if kind == model.EventSubagentStop {
		d.touchDebounce(payload.SessionID)
	}

	if err := d.ensureConsumer(d.lockPath, d.logger); err != nil {
		logger.Warn("failed to ensure consumer; entry stays queued", "error", err)
	}
}

// debounced reports whether a SubagentStop for this session fired within
// the debounce window.
func (d *Dispatcher) debounced(sessionID string) bool {
	if d.debounce <= 0 {
		return false
	}

	data, err := os.ReadFile(d.debouncePath(sessionID))
	if err != nil {
		return false
	}
	last, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return false
	}
	return time.Since(time.Unix(0, last)) < d.debounce
}

// touchDebounce records the announcement time for the session.
func (d *Dispatcher) touchDebounce(sessionID string) {
	path := d.debouncePath(sessionID)
	stamp := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := os.WriteFile(path, []byte(stamp), 0600); err != nil {
		d.logger.Debug("failed to update debounce stamp", "error", err)
	}
}

func (d *Dispatcher) debouncePath(sessionID string) string {
	// Session ids come from the host; keep only a safe slug.
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, sessionID)
	return filepath.Join(d.stateDir, "debounce-"+slug)
}
