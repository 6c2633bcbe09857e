package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeProvider scripts one backend's behavior for chain tests.
type fakeProvider struct {
	name        string
	unavailable error
	speakErr    error
	speakDelay  time.Duration
	calls       int
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Available() error { return f.unavailable }

func (f *fakeProvider) Speak(ctx context.Context, text string) error {
	f.calls++
	if f.speakDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.speakDelay):
		}
	}
	return f.speakErr
}

func newTestChain(timeout time.Duration, providers ...Provider) *Chain {
	return NewChain(&Registry{providers: providers}, timeout, nil)
}

func TestChain_FirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "say"}
	second := &fakeProvider{name: "espeak"}
	chain := newTestChain(time.Second, first, second)

	outcome := chain.Deliver(context.Background(), "hello")

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "say", outcome.Provider)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsBackAfterFailures(t *testing.T) {
	first := &fakeProvider{name: "say", speakErr: errors.New("no audio device")}
	second := &fakeProvider{name: "openai", speakErr: errors.New("status 500")}
	third := &fakeProvider{name: "espeak"}
	chain := newTestChain(time.Second, first, second, third)

	outcome := chain.Deliver(context.Background(), "hello")

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "espeak", outcome.Provider)
	assert.Equal(t, 3, outcome.Attempts)
}

func TestChain_SkipsUnavailableWithoutCountingAttempts(t *testing.T) {
	missing := &fakeProvider{name: "elevenlabs", unavailable: ErrMissingCredential}
	working := &fakeProvider{name: "espeak"}
	chain := newTestChain(time.Second, missing, working)

	outcome := chain.Deliver(context.Background(), "hello")

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "espeak", outcome.Provider)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, 0, missing.calls)
}

func TestChain_AllFailedIsExhausted(t *testing.T) {
	first := &fakeProvider{name: "say", speakErr: errors.New("boom")}
	second := &fakeProvider{name: "espeak", speakErr: errors.New("boom")}
	chain := newTestChain(time.Second, first, second)

	outcome := chain.Deliver(context.Background(), "hello")

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, ErrorExhausted, outcome.ErrorKind)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestChain_NothingAvailableIsUnavailable(t *testing.T) {
	first := &fakeProvider{name: "say", unavailable: ErrBinaryNotFound}
	second := &fakeProvider{name: "openai", unavailable: ErrMissingCredential}
	chain := newTestChain(time.Second, first, second)

	outcome := chain.Deliver(context.Background(), "hello")

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, ErrorUnavailable, outcome.ErrorKind)
	assert.Equal(t, 0, outcome.Attempts)
}

func TestChain_TimeoutFallsThroughToNext(t *testing.T) {
	slow := &fakeProvider{name: "openai", speakDelay: time.Second}
	fast := &fakeProvider{name: "espeak"}
	chain := newTestChain(20*time.Millisecond, slow, fast)

	outcome := chain.Deliver(context.Background(), "hello")

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "espeak", outcome.Provider)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorTimeout, classify(context.DeadlineExceeded))
	assert.Equal(t, ErrorTimeout, classify(fmt.Errorf("say: %w", context.DeadlineExceeded)))
	assert.Equal(t, ErrorRuntime, classify(errors.New("exit status 1")))
}
