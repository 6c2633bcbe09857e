package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-notify/herald/internal/model"
)

func newTestSpool(t *testing.T) *Spool {
	t.Helper()
	spool, err := NewSpool(t.TempDir(), nil)
	require.NoError(t, err)
	return spool
}

func enqueueText(t *testing.T, spool *Spool, text string) model.QueueEntry {
	t.Helper()
	req, err := model.NewRequest(model.EventStop, text, "session")
	require.NoError(t, err)
	entry := model.NewQueueEntry(*req)
	require.NoError(t, spool.Enqueue(entry))
	return entry
}

func TestSpool_EnqueueClaimComplete(t *testing.T) {
	spool := newTestSpool(t)
	entry := enqueueText(t, spool, "Work complete!")

	assert.Equal(t, 1, spool.Depth())

	claimed, err := spool.Claim()
	require.NoError(t, err)
	assert.Equal(t, entry.Request.ID, claimed.Entry.Request.ID)
	assert.Equal(t, "Work complete!", claimed.Entry.Request.Text)

	// Claimed entries leave the pending set immediately.
	assert.Equal(t, 0, spool.Depth())

	require.NoError(t, claimed.Complete())

	_, err = spool.Claim()
	assert.ErrorIs(t, err, ErrSpoolEmpty)
}

func TestSpool_ClaimIsFIFO(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "first")
	enqueueText(t, spool, "second")
	enqueueText(t, spool, "third")

	var order []string
	for {
		claimed, err := spool.Claim()
		if err != nil {
			assert.ErrorIs(t, err, ErrSpoolEmpty)
			break
		}
		order = append(order, claimed.Entry.Request.Text)
		require.NoError(t, claimed.Complete())
	}

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestSpool_ClaimIsFIFOWithinSameMillisecond(t *testing.T) {
	spool := newTestSpool(t)

	// Back-to-back enqueues land well inside one millisecond; order
	// must still hold.
	const n = 200
	for i := 0; i < n; i++ {
		enqueueText(t, spool, fmt.Sprintf("entry-%03d", i))
	}

	for i := 0; i < n; i++ {
		claimed, err := spool.Claim()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("entry-%03d", i), claimed.Entry.Request.Text)
		require.NoError(t, claimed.Complete())
	}
}

func TestSpool_ClaimDropsCorruptEntries(t *testing.T) {
	spool := newTestSpool(t)

	// A corrupt head must not wedge the queue.
	corrupt := filepath.Join(spool.Dir(), "00000000000000000000000000.job")
	require.NoError(t, os.WriteFile(corrupt, []byte("not json"), 0600))
	enqueueText(t, spool, "survivor")

	claimed, err := spool.Claim()
	require.NoError(t, err)
	assert.Equal(t, "survivor", claimed.Entry.Request.Text)
	assert.NoFileExists(t, corrupt)
}

func TestSpool_FlushKeepsPlayingEntry(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "playing")
	enqueueText(t, spool, "pending one")
	enqueueText(t, spool, "pending two")

	claimed, err := spool.Claim()
	require.NoError(t, err)

	removed, err := spool.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, spool.Depth())

	// The in-flight entry is untouched and still completes normally.
	assert.Equal(t, "playing", claimed.Entry.Request.Text)
	require.NoError(t, claimed.Complete())
}

func TestSpool_RecoverRequeuesInterruptedEntry(t *testing.T) {
	spool := newTestSpool(t)
	entry := enqueueText(t, spool, "interrupted")

	_, err := spool.Claim()
	require.NoError(t, err)
	assert.Equal(t, 0, spool.Depth())

	// Simulate a consumer crash: the claim is never completed.
	require.NoError(t, spool.Recover())
	assert.Equal(t, 1, spool.Depth())

	claimed, err := spool.Claim()
	require.NoError(t, err)
	assert.Equal(t, entry.Request.ID, claimed.Entry.Request.ID)
}

func TestSpool_RecoverPreservesFIFOPosition(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "first")
	enqueueText(t, spool, "second")

	_, err := spool.Claim()
	require.NoError(t, err)
	require.NoError(t, spool.Recover())

	claimed, err := spool.Claim()
	require.NoError(t, err)
	assert.Equal(t, "first", claimed.Entry.Request.Text)
}

func TestClaimed_UpdatePersistsAttemptCount(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "counted")

	claimed, err := spool.Claim()
	require.NoError(t, err)
	claimed.Entry.AttemptCount = 3
	require.NoError(t, claimed.Update())

	require.NoError(t, spool.Recover())
	reclaimed, err := spool.Claim()
	require.NoError(t, err)
	assert.Equal(t, 3, reclaimed.Entry.AttemptCount)
}

func TestSpool_PendingEntries(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "one")
	enqueueText(t, spool, "two")

	entries, err := spool.PendingEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Request.Text)
	assert.Equal(t, "two", entries[1].Request.Text)
}
