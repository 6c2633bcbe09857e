package provider

import (
	"context"
	"fmt"
	"os"
)

const openAISpeechEndpoint = "https://api.openai.com/v1/audio/speech"

// OpenAI synthesizes speech through the OpenAI audio API and plays the
// returned MP3 clip locally.
type OpenAI struct {
	voice  string
	model  string
	player clipPlayer
	apiKey func() string
}

// NewOpenAI creates the OpenAI speech adapter. The credential is read
// from OPENAI_API_KEY at availability-check time.
func NewOpenAI(voice, model string, player clipPlayer) *OpenAI {
	return &OpenAI{
		voice:  voice,
		model:  model,
		player: player,
		apiKey: func() string { return os.Getenv("OPENAI_API_KEY") },
	}
}

// Name returns the configured provider name.
func (o *OpenAI) Name() string { return "openai" }

// Available reports whether the API credential is present.
func (o *OpenAI) Available() error {
	if o.apiKey() == "" {
		return fmt.Errorf("openai: %w", ErrMissingCredential)
	}
	return nil
}

// Speak synthesizes and plays the text to completion.
func (o *OpenAI) Speak(ctx context.Context, text string) error {
	body := map[string]any{
		"model":           o.model,
		"voice":           o.voice,
		"input":           text,
		"response_format": "mp3",
	}
	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey(),
	}

	clip, err := synthesize(ctx, openAISpeechEndpoint, headers, body)
	if err != nil {
		return fmt.Errorf("openai: %w", err)
	}

	if err := o.player.PlayBytes(clip, ".mp3"); err != nil {
		return fmt.Errorf("openai playback: %w", err)
	}
	return nil
}
