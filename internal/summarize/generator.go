package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// generator is one text-generation backend. Generate returns the model's
// reply for a prompt, or an error; the summarizer treats every error the
// same way (fall through to the next backend, then to presets).
type generator interface {
	name() string
	available() bool
	generate(ctx context.Context, prompt string) (string, error)
}

const (
	openAIChatEndpoint     = "https://api.openai.com/v1/chat/completions"
	anthropicEndpoint      = "https://api.anthropic.com/v1/messages"
	anthropicVersionHeader = "2023-06-01"
)

// openAIGenerator calls the OpenAI chat completions API.
type openAIGenerator struct {
	model string
}

func (g *openAIGenerator) name() string { return "openai" }

func (g *openAIGenerator) available() bool {
	return os.Getenv("OPENAI_API_KEY") != ""
}

func (g *openAIGenerator) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": 100,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + os.Getenv("OPENAI_API_KEY"),
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, openAIChatEndpoint, headers, body, &reply); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(reply.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return reply.Choices[0].Message.Content, nil
}

// anthropicGenerator calls the Anthropic messages API.
type anthropicGenerator struct {
	model string
}

func (g *anthropicGenerator) name() string { return "anthropic" }

func (g *anthropicGenerator) available() bool {
	return os.Getenv("ANTHROPIC_API_KEY") != ""
}

func (g *anthropicGenerator) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      g.model,
		"max_tokens": 100,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         os.Getenv("ANTHROPIC_API_KEY"),
		"anthropic-version": anthropicVersionHeader,
	}

	var reply struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := postJSON(ctx, anthropicEndpoint, headers, body, &reply); err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	for _, block := range reply.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: empty completion")
}

// postJSON POSTs a JSON body and decodes a JSON reply.
func postJSON(ctx context.Context, url string, headers map[string]string, body, reply any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, string(detail))
	}

	return json.NewDecoder(resp.Body).Decode(reply)
}
