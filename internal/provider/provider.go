// Package provider implements the speech backends and the fallback chain
// that walks them in priority order.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Provider wraps one concrete speech backend behind a uniform contract.
// Speak is synchronous: it returns only after the utterance has been
// played end-to-end, or failed. The passed context bounds the attempt;
// implementations must not leave processes or connections behind when
// it expires.
type Provider interface {
	// Name returns the configured provider name.
	Name() string

	// Available reports whether the backend can currently be used.
	// A non-nil error explains the missing precondition (credential,
	// binary) and is logged at debug level by the chain.
	Available() error

	// Speak synthesizes text and plays it to completion.
	Speak(ctx context.Context, text string) error
}

// Availability errors.
var (
	ErrMissingCredential = errors.New("api key not set")
	ErrBinaryNotFound    = errors.New("binary not found")
)

// ErrorKind classifies a failed delivery for the audit trail.
type ErrorKind string

const (
	// ErrorNone marks a successful outcome.
	ErrorNone ErrorKind = ""
	// ErrorUnavailable means no provider passed its availability check.
	ErrorUnavailable ErrorKind = "unavailable"
	// ErrorTimeout means the backend ran past its per-attempt deadline.
	ErrorTimeout ErrorKind = "timeout"
	// ErrorRuntime means the backend was invoked but failed.
	ErrorRuntime ErrorKind = "runtime"
	// ErrorExhausted means every provider in the chain failed.
	ErrorExhausted ErrorKind = "exhausted"
)

// Outcome is the result of one delivery through the chain. Transient:
// used for the audit trail and the consumer's attempt counter, never
// persisted.
type Outcome struct {
	Provider  string
	Succeeded bool
	ErrorKind ErrorKind
	Attempts  int
}

func (o Outcome) String() string {
	if o.Succeeded {
		return fmt.Sprintf("spoken via %s after %d attempt(s)", o.Provider, o.Attempts)
	}
	return fmt.Sprintf("failed (%s) after %d attempt(s)", o.ErrorKind, o.Attempts)
}
