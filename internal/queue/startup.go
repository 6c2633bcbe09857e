package queue

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// daemonBinary is the long-lived consumer executable.
const daemonBinary = "heraldd"

// EnsureConsumer makes sure a consumer is running for the spool.
// Producers call this after every enqueue: if a live daemon holds the
// lock nothing happens; otherwise one is spawned detached. Multiple
// simultaneous spawns converge to a single consumer through the lock —
// the losers exit on their own.
func EnsureConsumer(lockPath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if ConsumerAlive(lockPath) {
		return nil
	}

	binary, err := findDaemon()
	if err != nil {
		return err
	}

	cmd := exec.Command(binary)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return err
	}

	logger.Debug("consumer daemon spawned", "binary", binary, "pid", cmd.Process.Pid)

	// Detach: the producer exits long before playback finishes.
	return cmd.Process.Release()
}

// findDaemon locates heraldd next to the current executable, falling
// back to PATH.
func findDaemon() (string, error) {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), daemonBinary)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	return exec.LookPath(daemonBinary)
}
