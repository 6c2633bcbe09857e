// Package summarize turns a lifecycle event's context into short spoken
// text. A generation backend is tried under a timeout; any failure falls
// back to a deterministic preset, so this package never returns an error.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/herald-notify/herald/internal/config"
	"github.com/herald-notify/herald/internal/model"
	"github.com/herald-notify/herald/internal/transcript"
)

// maxSourceChars keeps only the tail of a long assistant message; the
// conclusion is what an announcement should reflect.
const maxSourceChars = 2000

// Summarizer produces the spoken text for an event.
type Summarizer struct {
	enabled      bool
	maxWords     int
	timeout      time.Duration
	engineerName string
	backends     []generator
	logger       *slog.Logger
}

// New creates a summarizer from config. Generation order mirrors the
// credential fallback: OpenAI first, Anthropic second.
func New(cfg *config.Config, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		enabled:      cfg.Summarizer.Enabled,
		maxWords:     cfg.Summarizer.MaxWords,
		timeout:      cfg.SummarizerTimeout(),
		engineerName: strings.TrimSpace(cfg.Dispatch.EngineerName),
		backends: []generator{
			&openAIGenerator{model: "gpt-4o-mini"},
			&anthropicGenerator{model: "claude-3-5-haiku-latest"},
		},
		logger: logger,
	}
}

// Summarize returns the spoken text for an event. It never fails: when
// no backend is configured, or generation errors out or times out, the
// deterministic preset for the event kind is returned instead.
func (s *Summarizer) Summarize(ctx context.Context, kind model.EventKind, payload model.Payload) string {
	// A subagent whose transcript has no user turn yet is a startup
	// agent: announce readiness, there is no work to summarize.
	if kind == model.EventSubagentStop && !transcript.HasUserTurn(payload.AgentTranscriptPath) {
		return presetSubagentStart
	}

	preset := s.personalize(kind, Preset(kind, payload))

	if !s.enabled {
		return preset
	}

	source := s.transcriptTail(kind, payload)
	if source == "" {
		return preset
	}

	if generated := s.generate(ctx, source); generated != "" {
		return generated
	}

	// Generation failed everywhere; a raw first sentence still beats
	// a generic preset for completion events.
	if first := transcript.FirstSentence(source); first != "" && len(first) < 200 {
		return first
	}
	return preset
}

// transcriptTail pulls the text worth summarizing for the event, if any.
func (s *Summarizer) transcriptTail(kind model.EventKind, payload model.Payload) string {
	var path string
	switch kind {
	case model.EventStop:
		path = payload.TranscriptPath
	case model.EventSubagentStop:
		path = payload.AgentTranscriptPath
	default:
		return ""
	}

	text := transcript.LastAssistantMessage(path)
	if len(text) > maxSourceChars {
		text = "..." + text[len(text)-maxSourceChars:]
	}
	return text
}

// generate runs the backend chain under the configured timeout.
func (s *Summarizer) generate(ctx context.Context, source string) string {
	prompt := s.buildPrompt(source)

	for _, backend := range s.backends {
		if !backend.available() {
			s.logger.Debug("summarizer backend unavailable", "backend", backend.name())
			continue
		}

		genCtx, cancel := context.WithTimeout(ctx, s.timeout)
		reply, err := backend.generate(genCtx, prompt)
		cancel()

		if err != nil {
			s.logger.Warn("summarizer backend failed", "backend", backend.name(), "error", err)
			continue
		}

		if cleaned := cleanReply(reply); cleaned != "" {
			s.logger.Debug("summary generated", "backend", backend.name(), "summary", cleaned)
			return cleaned
		}
	}
	return ""
}

// buildPrompt frames the request around what the assistant was doing:
// proposing, investigating, or finishing work.
func (s *Summarizer) buildPrompt(source string) string {
	lower := strings.ToLower(source)

	verbPhrase := "what you accomplished"
	switch {
	case containsAny(lower, "i'll", "let me", "i'm going to", "here's the plan", "we should", "we need to", "next step"):
		verbPhrase = "what you proposed"
	case containsAny(lower, "analysis", "investigating", "found that", "it appears", "the issue is"):
		verbPhrase = "what you found"
	}

	return fmt.Sprintf(
		"Summarize %s in %d words or less, speaking in first person. Be concise and focus on the key outcome only.\n\nYour response:\n%s",
		verbPhrase, s.maxWords, source)
}

// personalize prefixes attention announcements with the engineer's name
// when configured.
func (s *Summarizer) personalize(kind model.EventKind, text string) string {
	if s.engineerName == "" || kind != model.EventNotification {
		return text
	}
	return s.engineerName + ", " + strings.ToLower(text[:1]) + text[1:]
}

// cleanReply strips quoting and keeps the first line of a model reply.
func cleanReply(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.Trim(reply, `"'`)
	if idx := strings.IndexByte(reply, '\n'); idx >= 0 {
		reply = reply[:idx]
	}
	return strings.TrimSpace(reply)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
