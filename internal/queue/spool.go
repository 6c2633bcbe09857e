// Package queue implements the durable playback spool and its single
// consumer.
//
// Each queued announcement is one JSON file in the spool directory,
// named by a zero-padded nanosecond enqueue timestamp so lexicographic
// order is enqueue order even for back-to-back writes.
// Producers append with a write-then-rename, which needs no coordination
// between concurrent short-lived processes; entries survive producer
// exit and are drained by whichever consumer holds the lock.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/herald-notify/herald/internal/model"
)

// Spool file suffixes. A .job entry is pending; the consumer renames the
// FIFO head to .playing while it is being resolved.
const (
	suffixPending = ".job"
	suffixPlaying = ".playing"
)

// ErrSpoolEmpty is returned by Claim when no entry is pending.
var ErrSpoolEmpty = errors.New("spool is empty")

// Spool is the durable FIFO backing the playback queue.
type Spool struct {
	dir    string
	logger *slog.Logger
}

// NewSpool opens (creating if needed) the spool directory.
func NewSpool(dir string, logger *slog.Logger) (*Spool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory %s: %w", dir, err)
	}
	return &Spool{dir: dir, logger: logger}, nil
}

// Dir returns the spool directory path.
func (s *Spool) Dir() string { return s.dir }

// fifoName builds an entry's spool file name. ULID timestamps only have
// millisecond resolution, which would shuffle same-millisecond entries,
// so the FIFO key is the nanosecond enqueue time; the ULID suffix keeps
// the name unique.
func fifoName(entry model.QueueEntry) string {
	return fmt.Sprintf("%020d-%s", entry.EnqueuedAt.UnixNano(), entry.Request.ID)
}

// Enqueue appends an entry to the spool. The write is staged to a temp
// file and renamed into place so a concurrent consumer never observes a
// partial entry.
func (s *Spool) Enqueue(entry model.QueueEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	name := fifoName(entry)
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	final := filepath.Join(s.dir, name+suffixPending)

	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit entry: %w", err)
	}

	s.logger.Debug("entry enqueued", "id", entry.Request.ID, "event_kind", entry.Request.EventKind)
	return nil
}

// Pending returns the pending entry file names in FIFO order.
func (s *Spool) Pending() ([]string, error) {
	names, err := s.list(suffixPending)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Depth returns the number of pending entries.
func (s *Spool) Depth() int {
	names, err := s.Pending()
	if err != nil {
		return 0
	}
	return len(names)
}

// Claimed is a spool entry the consumer has taken ownership of.
type Claimed struct {
	Entry model.QueueEntry
	path  string
	spool *Spool
}

// Claim takes the FIFO head: the oldest pending entry is renamed to
// .playing and decoded. Corrupt entries are dropped with a log line and
// the next one is tried. Returns ErrSpoolEmpty when nothing is pending.
func (s *Spool) Claim() (*Claimed, error) {
	for {
		names, err := s.Pending()
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, ErrSpoolEmpty
		}

		pending := filepath.Join(s.dir, names[0])
		playing := strings.TrimSuffix(pending, suffixPending) + suffixPlaying

		if err := os.Rename(pending, playing); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// Flushed between listing and claim; try the next head.
				continue
			}
			return nil, fmt.Errorf("failed to claim entry: %w", err)
		}

		data, err := os.ReadFile(playing)
		if err != nil {
			return nil, fmt.Errorf("failed to read claimed entry: %w", err)
		}

		var entry model.QueueEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			s.logger.Warn("dropping corrupt spool entry", "file", names[0], "error", err)
			_ = os.Remove(playing)
			continue
		}

		return &Claimed{Entry: entry, path: playing, spool: s}, nil
	}
}

// Update persists the entry's mutable state (attempt count) while it is
// claimed.
func (c *Claimed) Update() error {
	data, err := json.Marshal(c.Entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}

// Complete removes the entry: playback reached a terminal state
// (success or all providers exhausted).
func (c *Claimed) Complete() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	c.spool.logger.Debug("entry completed", "id", c.Entry.Request.ID)
	return nil
}

// Flush discards all pending entries without touching the one currently
// playing. Used at session boundaries. Returns the number removed.
func (s *Spool) Flush() (int, error) {
	names, err := s.Pending()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("spool flushed", "removed", removed)
	}
	return removed, nil
}

// Recover requeues entries left in .playing state by a crashed consumer.
// The ULID name is unchanged, so FIFO position is preserved.
func (s *Spool) Recover() error {
	names, err := s.list(suffixPlaying)
	if err != nil {
		return err
	}

	for _, name := range names {
		playing := filepath.Join(s.dir, name)
		pending := strings.TrimSuffix(playing, suffixPlaying) + suffixPending
		if err := os.Rename(playing, pending); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to recover entry %s: %w", name, err)
		}
		s.logger.Warn("recovered interrupted entry", "file", name)
	}
	return nil
}

// PendingEntries decodes every pending entry in FIFO order, skipping
// corrupt files. Used by the status command.
func (s *Spool) PendingEntries() ([]model.QueueEntry, error) {
	names, err := s.Pending()
	if err != nil {
		return nil, err
	}

	entries := make([]model.QueueEntry, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var entry model.QueueEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Spool) list(suffix string) ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), suffix) {
			continue
		}
		names = append(names, de.Name())
	}
	return names, nil
}
