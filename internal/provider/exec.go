package provider

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// killGrace is how long a speech process gets to exit after its context
// is cancelled before it is killed outright.
const killGrace = 2 * time.Second

// runSpeechCommand runs a speech binary to completion under ctx.
// On timeout the process is terminated; Wait is always reached, so no
// zombie is left behind.
func runSpeechCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = killGrace

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited with status %d", name, exitErr.ExitCode())
	}
	return fmt.Errorf("%s: %w", name, err)
}
