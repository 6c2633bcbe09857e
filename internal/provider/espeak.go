package provider

import (
	"context"
	"fmt"
	"os/exec"
)

// espeakCandidates are tried in order when no binary is configured.
var espeakCandidates = []string{"espeak-ng", "espeak", "spd-say"}

// Espeak speaks through a local offline engine. It is the chain's last
// resort: always credential-free, works without network.
type Espeak struct {
	binary   string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewEspeak creates the offline engine adapter. binary may be empty to
// auto-detect one of the known engines.
func NewEspeak(binary string) *Espeak {
	return &Espeak{
		binary:   binary,
		lookPath: exec.LookPath,
		run:      runSpeechCommand,
	}
}

// Name returns the configured provider name.
func (e *Espeak) Name() string { return "espeak" }

// Available reports whether a usable engine binary is on PATH.
func (e *Espeak) Available() error {
	if _, err := e.resolve(); err != nil {
		return err
	}
	return nil
}

// Speak runs the engine and waits for playback to finish.
func (e *Espeak) Speak(ctx context.Context, text string) error {
	binary, err := e.resolve()
	if err != nil {
		return err
	}

	args := []string{text}
	if binary == "spd-say" {
		// spd-say returns before playback is done unless told to wait.
		args = []string{"--wait", text}
	}
	return e.run(ctx, binary, args...)
}

func (e *Espeak) resolve() (string, error) {
	if e.binary != "" {
		if _, err := e.lookPath(e.binary); err != nil {
			return "", fmt.Errorf("%s: %w", e.binary, ErrBinaryNotFound)
		}
		return e.binary, nil
	}
	for _, candidate := range espeakCandidates {
		if _, err := e.lookPath(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("espeak: %w", ErrBinaryNotFound)
}
