package provider

import (
	"context"
	"fmt"
	"os"
)

const elevenLabsEndpoint = "https://api.elevenlabs.io/v1/text-to-speech"

// ElevenLabs synthesizes speech through the ElevenLabs REST API and plays
// the returned MP3 clip locally.
type ElevenLabs struct {
	voiceID string
	modelID string
	player  clipPlayer
	apiKey  func() string
}

// NewElevenLabs creates the ElevenLabs adapter. The credential is read
// from ELEVENLABS_API_KEY at availability-check time.
func NewElevenLabs(voiceID, modelID string, player clipPlayer) *ElevenLabs {
	return &ElevenLabs{
		voiceID: voiceID,
		modelID: modelID,
		player:  player,
		apiKey:  func() string { return os.Getenv("ELEVENLABS_API_KEY") },
	}
}

// Name returns the configured provider name.
func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Available reports whether the API credential is present.
func (e *ElevenLabs) Available() error {
	if e.apiKey() == "" {
		return fmt.Errorf("elevenlabs: %w", ErrMissingCredential)
	}
	return nil
}

// Speak synthesizes and plays the text to completion.
func (e *ElevenLabs) Speak(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/%s?output_format=mp3_44100_128", elevenLabsEndpoint, e.voiceID)

	body := map[string]any{
		"text":     text,
		"model_id": e.modelID,
	}
	headers := map[string]string{
		"xi-api-key": e.apiKey(),
	}

	clip, err := synthesize(ctx, url, headers, body)
	if err != nil {
		return fmt.Errorf("elevenlabs: %w", err)
	}

	if err := e.player.PlayBytes(clip, ".mp3"); err != nil {
		return fmt.Errorf("elevenlabs playback: %w", err)
	}
	return nil
}
