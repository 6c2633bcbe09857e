// Package model defines the core data structures for herald.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventKind identifies a lifecycle event in the host tool.
type EventKind string

// Lifecycle events that can trigger a spoken announcement.
const (
	EventSessionStart EventKind = "SessionStart"
	EventSessionEnd   EventKind = "SessionEnd"
	EventStop         EventKind = "Stop"
	EventSubagentStop EventKind = "SubagentStop"
	EventNotification EventKind = "Notification"
)

// AllEventKinds lists every recognized event kind in a stable order.
var AllEventKinds = []EventKind{
	EventSessionStart,
	EventSessionEnd,
	EventStop,
	EventSubagentStop,
	EventNotification,
}

// Validation errors.
var (
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrEmptyRequestID   = errors.New("request id cannot be empty")
	ErrEmptyText        = errors.New("text cannot be empty")
)

// ParseEventKind validates a raw event name from config or the CLI.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range AllEventKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
}

// Payload is the structured input a hook invocation delivers on stdin.
// Fields beyond SessionID are event-specific and may be empty.
type Payload struct {
	SessionID           string `json:"session_id"`
	TranscriptPath      string `json:"transcript_path,omitempty"`
	AgentTranscriptPath string `json:"agent_transcript_path,omitempty"`
	Message             string `json:"message,omitempty"`
	Source              string `json:"source,omitempty"` // SessionStart: startup, resume, clear
	Reason              string `json:"reason,omitempty"` // SessionEnd: clear, logout, ...
	CWD                 string `json:"cwd,omitempty"`
	AgentID             string `json:"agent_id,omitempty"`
}

// Request is a single announcement to be spoken. Immutable once created:
// the dispatcher builds it and the queue consumer discards it after playback.
type Request struct {
	ID        string    `json:"id"`
	EventKind EventKind `json:"event_kind"`
	Text      string    `json:"text"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRequest creates a Request with a generated ULID.
func NewRequest(kind EventKind, text, sessionID string) (*Request, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Request{
		ID:        id.String(),
		EventKind: kind,
		Text:      text,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks that the request has all required fields.
func (r *Request) Validate() error {
	if r.ID == "" {
		return ErrEmptyRequestID
	}
	if r.Text == "" {
		return ErrEmptyText
	}
	if _, err := ParseEventKind(string(r.EventKind)); err != nil {
		return err
	}
	return nil
}

// QueueEntry wraps a Request while it sits in the playback spool.
// AttemptCount is mutated only by the consumer.
type QueueEntry struct {
	Request      Request   `json:"request"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	AttemptCount int       `json:"attempt_count"`
}

// NewQueueEntry wraps a request for spooling.
func NewQueueEntry(r Request) QueueEntry {
	return QueueEntry{
		Request:    r,
		EnqueuedAt: time.Now().UTC(),
	}
}
