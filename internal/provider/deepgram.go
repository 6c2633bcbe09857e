package provider

import (
	"context"
	"fmt"
	"net/url"
	"os"
)

const deepgramSpeakEndpoint = "https://api.deepgram.com/v1/speak"

// Deepgram synthesizes speech through the Deepgram Aura REST API and
// plays the returned MP3 clip locally.
type Deepgram struct {
	model  string
	player clipPlayer
	apiKey func() string
}

// NewDeepgram creates the Deepgram adapter. The credential is read from
// DEEPGRAM_API_KEY at availability-check time.
func NewDeepgram(model string, player clipPlayer) *Deepgram {
	return &Deepgram{
		model:  model,
		player: player,
		apiKey: func() string { return os.Getenv("DEEPGRAM_API_KEY") },
	}
}

// Name returns the configured provider name.
func (d *Deepgram) Name() string { return "deepgram" }

// Available reports whether the API credential is present.
func (d *Deepgram) Available() error {
	if d.apiKey() == "" {
		return fmt.Errorf("deepgram: %w", ErrMissingCredential)
	}
	return nil
}

// Speak synthesizes and plays the text to completion.
func (d *Deepgram) Speak(ctx context.Context, text string) error {
	speakURL, _ := url.Parse(deepgramSpeakEndpoint)
	query := speakURL.Query()
	query.Set("model", d.model)
	query.Set("encoding", "mp3")
	speakURL.RawQuery = query.Encode()

	body := map[string]any{"text": text}
	headers := map[string]string{
		"Authorization": "Token " + d.apiKey(),
	}

	clip, err := synthesize(ctx, speakURL.String(), headers, body)
	if err != nil {
		return fmt.Errorf("deepgram: %w", err)
	}

	if err := d.player.PlayBytes(clip, ".mp3"); err != nil {
		return fmt.Errorf("deepgram playback: %w", err)
	}
	return nil
}
