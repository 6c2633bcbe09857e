package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-notify/herald/internal/provider"
)

// fakeDeliverer records delivered texts in order.
type fakeDeliverer struct {
	delivered []string
	outcome   provider.Outcome
}

func (f *fakeDeliverer) Deliver(ctx context.Context, text string) provider.Outcome {
	f.delivered = append(f.delivered, text)
	return f.outcome
}

func TestConsumer_DrainOnceIsFIFO(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "first")
	enqueueText(t, spool, "second")
	enqueueText(t, spool, "third")

	deliverer := &fakeDeliverer{outcome: provider.Outcome{Provider: "say", Succeeded: true, Attempts: 1}}
	consumer := NewConsumer(spool, deliverer, nil)

	played := consumer.DrainOnce(context.Background())

	assert.Equal(t, 3, played)
	assert.Equal(t, []string{"first", "second", "third"}, deliverer.delivered)
	assert.Equal(t, 0, spool.Depth())
}

func TestConsumer_DrainOncePicksUpLateArrivals(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "first")

	deliverer := &fakeDeliverer{outcome: provider.Outcome{Provider: "say", Succeeded: true, Attempts: 1}}
	consumer := NewConsumer(spool, deliverer, nil)
	require.Equal(t, 1, consumer.DrainOnce(context.Background()))

	// Arrivals during playback are seen on the next claim pass.
	enqueueText(t, spool, "second")
	require.Equal(t, 1, consumer.DrainOnce(context.Background()))

	assert.Equal(t, []string{"first", "second"}, deliverer.delivered)
}

func TestConsumer_ExhaustedEntryIsRetired(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "doomed")

	deliverer := &fakeDeliverer{outcome: provider.Outcome{
		Succeeded: false,
		ErrorKind: provider.ErrorExhausted,
		Attempts:  2,
	}}
	consumer := NewConsumer(spool, deliverer, nil)
	consumer.DrainOnce(context.Background())

	// Terminal failure never wedges the queue.
	assert.Equal(t, 0, spool.Depth())
	_, err := spool.Claim()
	assert.ErrorIs(t, err, ErrSpoolEmpty)
}

func TestConsumer_CancelledContextStopsBetweenEntries(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "never played")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deliverer := &fakeDeliverer{outcome: provider.Outcome{Succeeded: true, Attempts: 1}}
	consumer := NewConsumer(spool, deliverer, nil)
	played := consumer.DrainOnce(ctx)

	assert.Equal(t, 0, played)
	assert.Empty(t, deliverer.delivered)
	assert.Equal(t, 1, spool.Depth())
}

func TestConsumer_RunDrainsAndStopsOnCancel(t *testing.T) {
	spool := newTestSpool(t)
	enqueueText(t, spool, "queued before start")

	deliverer := &fakeDeliverer{outcome: provider.Outcome{Provider: "say", Succeeded: true, Attempts: 1}}
	consumer := NewConsumer(spool, deliverer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool {
		return spool.Depth() == 0 && len(deliverer.delivered) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A new arrival wakes the idle consumer through the watcher.
	enqueueText(t, spool, "queued while idle")
	require.Eventually(t, func() bool {
		return len(deliverer.delivered) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}

	assert.Equal(t, StateStopped, consumer.State())
}

func TestConsumer_RunRecoversInterruptedEntries(t *testing.T) {
	spool := newTestSpool(t)
	entry := enqueueText(t, spool, "interrupted")

	// A previous consumer claimed the entry and crashed.
	_, err := spool.Claim()
	require.NoError(t, err)

	deliverer := &fakeDeliverer{outcome: provider.Outcome{Provider: "say", Succeeded: true, Attempts: 1}}
	consumer := NewConsumer(spool, deliverer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(deliverer.delivered) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, entry.Request.Text, deliverer.delivered[0])

	cancel()
	require.NoError(t, <-done)
}
