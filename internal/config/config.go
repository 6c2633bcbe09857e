// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/herald-notify/herald/internal/model"
)

// Default configuration values.
const (
	DefaultProviderTimeout   = "10s"
	DefaultSummarizerTimeout = "15s"
	DefaultSubagentDebounce  = "10s"
	DefaultMaxWords          = 10
	DefaultLogLevel          = "info"
)

// DefaultPriorityChain is the provider order used when none is configured.
// Native engine first, cloud APIs next, offline engine last.
var DefaultPriorityChain = []string{"say", "elevenlabs", "openai", "deepgram", "espeak"}

// Config represents the herald configuration.
type Config struct {
	TTS        TTSConfig        `toml:"tts"`
	Providers  ProvidersConfig  `toml:"providers"`
	Summarizer SummarizerConfig `toml:"summarizer"`
	Dispatch   DispatchConfig   `toml:"dispatch"`
	Log        LogConfig        `toml:"log"`
}

// TTSConfig holds the delivery chain and skip rules.
type TTSConfig struct {
	Enabled         bool     `toml:"enabled"`
	PriorityChain   []string `toml:"priority_chain"`
	SkipEvents      []string `toml:"skip_events"`
	ProviderTimeout string   `toml:"provider_timeout"`
}

// ProvidersConfig holds per-provider settings. Credentials come from the
// environment, never from this file.
type ProvidersConfig struct {
	Say        SayConfig        `toml:"say"`
	Espeak     EspeakConfig     `toml:"espeak"`
	ElevenLabs ElevenLabsConfig `toml:"elevenlabs"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Deepgram   DeepgramConfig   `toml:"deepgram"`
}

// SayConfig configures the macOS say adapter.
type SayConfig struct {
	Voice string `toml:"voice"` // System default when empty
}

// EspeakConfig configures the offline engine adapter.
type EspeakConfig struct {
	Binary string `toml:"binary"` // Auto-detected when empty
}

// ElevenLabsConfig configures the ElevenLabs adapter.
type ElevenLabsConfig struct {
	VoiceID string `toml:"voice_id"`
	ModelID string `toml:"model_id"`
}

// OpenAIConfig configures the OpenAI speech adapter.
type OpenAIConfig struct {
	Voice string `toml:"voice"`
	Model string `toml:"model"`
}

// DeepgramConfig configures the Deepgram Aura adapter.
type DeepgramConfig struct {
	Model string `toml:"model"`
}

// SummarizerConfig holds spoken-summary generation settings.
type SummarizerConfig struct {
	Enabled  bool   `toml:"enabled"`
	MaxWords int    `toml:"max_words"`
	Timeout  string `toml:"timeout"`
}

// DispatchConfig holds dispatcher behavior settings.
type DispatchConfig struct {
	SubagentDebounce string `toml:"subagent_debounce"`
	EngineerName     string `toml:"engineer_name"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		TTS: TTSConfig{
			Enabled:         true,
			PriorityChain:   append([]string(nil), DefaultPriorityChain...),
			ProviderTimeout: DefaultProviderTimeout,
		},
		Providers: ProvidersConfig{
			ElevenLabs: ElevenLabsConfig{
				VoiceID: "EXAVITQu4vr4xnSDxMaL",
				ModelID: "eleven_flash_v2_5",
			},
			OpenAI: OpenAIConfig{
				Voice: "nova",
				Model: "gpt-4o-mini-tts",
			},
			Deepgram: DeepgramConfig{
				Model: "aura-asteria-en",
			},
		},
		Summarizer: SummarizerConfig{
			Enabled:  true,
			MaxWords: DefaultMaxWords,
			Timeout:  DefaultSummarizerTimeout,
		},
		Dispatch: DispatchConfig{
			SubagentDebounce: DefaultSubagentDebounce,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "herald", "config.toml")
}

// EnvPath returns the path to the optional .env file holding credentials.
func EnvPath() string {
	return filepath.Join(filepath.Dir(ConfigPath()), ".env")
}

// StatePath returns the path to the state directory.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "herald")
}

// QueuePath returns the playback spool directory.
func QueuePath() string {
	return filepath.Join(StatePath(), "queue")
}

// LockPath returns the consumer lock file path.
func LockPath() string {
	return filepath.Join(StatePath(), "consumer.lock")
}

// EventLogPath returns the append-only audit log path.
func EventLogPath() string {
	return filepath.Join(StatePath(), "events.log")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if the file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Credentials may live alongside the config file.
	_ = godotenv.Load(EnvPath())

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ValidationError describes a malformed configuration entry. Fatal at
// startup: a broken chain or skip list must reach the operator rather
// than degrade into a silent no-op.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s=%q: %s", e.Field, e.Value, e.Reason)
}

// knownProviders are the adapter names a chain entry may reference.
var knownProviders = map[string]struct{}{
	"say":        {},
	"espeak":     {},
	"elevenlabs": {},
	"openai":     {},
	"deepgram":   {},
}

// Validate checks the priority chain, skip set and duration fields.
func (c *Config) Validate() error {
	if len(c.TTS.PriorityChain) == 0 {
		return &ValidationError{Field: "tts.priority_chain", Reason: "must list at least one provider"}
	}

	seen := make(map[string]struct{}, len(c.TTS.PriorityChain))
	for _, name := range c.TTS.PriorityChain {
		name = strings.TrimSpace(name)
		if name == "" {
			return &ValidationError{Field: "tts.priority_chain", Reason: "empty provider name"}
		}
		if _, ok := knownProviders[name]; !ok {
			return &ValidationError{Field: "tts.priority_chain", Value: name, Reason: "unknown provider"}
		}
		if _, dup := seen[name]; dup {
			return &ValidationError{Field: "tts.priority_chain", Value: name, Reason: "listed twice"}
		}
		seen[name] = struct{}{}
	}

	for _, raw := range c.TTS.SkipEvents {
		if _, err := model.ParseEventKind(strings.TrimSpace(raw)); err != nil {
			return &ValidationError{Field: "tts.skip_events", Value: raw, Reason: "unknown event kind"}
		}
	}

	for field, value := range map[string]string{
		"tts.provider_timeout":       c.TTS.ProviderTimeout,
		"summarizer.timeout":         c.Summarizer.Timeout,
		"dispatch.subagent_debounce": c.Dispatch.SubagentDebounce,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return &ValidationError{Field: field, Value: value, Reason: "not a duration"}
		}
	}

	return nil
}

// PriorityChain returns the configured chain with names normalized.
func (c *Config) PriorityChain() []string {
	chain := make([]string, 0, len(c.TTS.PriorityChain))
	for _, name := range c.TTS.PriorityChain {
		chain = append(chain, strings.TrimSpace(name))
	}
	return chain
}

// SkipSet returns the configured skip events as a typed set.
// Call only after Validate: unknown kinds are dropped here.
func (c *Config) SkipSet() map[model.EventKind]struct{} {
	set := make(map[model.EventKind]struct{}, len(c.TTS.SkipEvents))
	for _, raw := range c.TTS.SkipEvents {
		kind, err := model.ParseEventKind(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		set[kind] = struct{}{}
	}
	return set
}

// ProviderTimeout returns the per-adapter timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return durationOr(c.TTS.ProviderTimeout, DefaultProviderTimeout)
}

// SummarizerTimeout returns the generation backend timeout.
func (c *Config) SummarizerTimeout() time.Duration {
	return durationOr(c.Summarizer.Timeout, DefaultSummarizerTimeout)
}

// SubagentDebounce returns the minimum interval between SubagentStop
// announcements for one session.
func (c *Config) SubagentDebounce() time.Duration {
	return durationOr(c.Dispatch.SubagentDebounce, DefaultSubagentDebounce)
}

func durationOr(value, fallback string) time.Duration {
	if value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// EnsureStateDir creates the state and queue directories if needed.
func EnsureStateDir() error {
	path := QueuePath()
	if path == "" {
		return errors.New("unable to determine state directory")
	}
	return os.MkdirAll(path, 0755)
}
