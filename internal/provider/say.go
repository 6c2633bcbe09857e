package provider

import (
	"context"
	"fmt"
	"os/exec"
)

// Say speaks through the native macOS `say` command. Free, reliable, and
// needs no credential, which is why it leads the default chain.
type Say struct {
	voice    string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewSay creates the macOS say adapter. voice may be empty for the
// system default.
func NewSay(voice string) *Say {
	return &Say{
		voice:    voice,
		lookPath: exec.LookPath,
		run:      runSpeechCommand,
	}
}

// Name returns the configured provider name.
func (s *Say) Name() string { return "say" }

// Available reports whether the say binary is on PATH.
func (s *Say) Available() error {
	if _, err := s.lookPath("say"); err != nil {
		return fmt.Errorf("say: %w", ErrBinaryNotFound)
	}
	return nil
}

// Speak runs `say` and waits for playback to finish.
func (s *Say) Speak(ctx context.Context, text string) error {
	args := []string{text}
	if s.voice != "" {
		args = []string{"-v", s.voice, text}
	}
	return s.run(ctx, "say", args...)
}
