package provider

import (
	"fmt"

	"github.com/herald-notify/herald/internal/config"
)

// Registry holds the configured providers in priority order. Built once
// at startup, read-only afterwards; the order is exactly the configured
// chain and is never adjusted by past outcomes.
type Registry struct {
	providers []Provider
}

// NewRegistry builds the ordered provider set from config. Unknown names
// have already been rejected by config validation.
func NewRegistry(cfg *config.Config, player clipPlayer) (*Registry, error) {
	chain := cfg.PriorityChain()
	providers := make([]Provider, 0, len(chain))

	for _, name := range chain {
		switch name {
		case "say":
			providers = append(providers, NewSay(cfg.Providers.Say.Voice))
		case "espeak":
			providers = append(providers, NewEspeak(cfg.Providers.Espeak.Binary))
		case "elevenlabs":
			providers = append(providers, NewElevenLabs(cfg.Providers.ElevenLabs.VoiceID, cfg.Providers.ElevenLabs.ModelID, player))
		case "openai":
			providers = append(providers, NewOpenAI(cfg.Providers.OpenAI.Voice, cfg.Providers.OpenAI.Model, player))
		case "deepgram":
			providers = append(providers, NewDeepgram(cfg.Providers.Deepgram.Model, player))
		default:
			return nil, fmt.Errorf("unknown provider %q in priority chain", name)
		}
	}

	return &Registry{providers: providers}, nil
}

// All returns every configured provider in priority order.
func (r *Registry) All() []Provider {
	return r.providers
}

// Available returns the providers whose preconditions currently pass,
// preserving priority order.
func (r *Registry) Available() []Provider {
	available := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Available() == nil {
			available = append(available, p)
		}
	}
	return available
}
