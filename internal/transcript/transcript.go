// Package transcript reads the host tool's JSONL session transcripts.
// Only the pieces the summarizer needs are parsed; malformed lines are
// skipped, matching the file's append-and-crash-tolerant format.
package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
)

// maxLineSize bounds a single transcript line.
const maxLineSize = 1024 * 1024

type entry struct {
	Type    string `json:"type"`
	Message struct {
		Content []contentBlock `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// LastAssistantMessage extracts the assistant's text since the last user
// turn: the part of the conversation a completion announcement should
// summarize. Returns "" when the transcript is missing or has no
// assistant text.
func LastAssistantMessage(path string) string {
	entries := readEntries(path)
	if len(entries) == 0 {
		return ""
	}

	lastUser := -1
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Type == "user" {
			lastUser = i
			break
		}
	}

	var texts []string
	for _, e := range entries[lastUser+1:] {
		if e.Type != "assistant" {
			continue
		}
		var parts []string
		for _, block := range e.Message.Content {
			if block.Type == "text" && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) > 0 {
			texts = append(texts, strings.Join(parts, " "))
		}
	}

	return strings.Join(texts, " ")
}

// CountMessages returns the number of transcript lines, or 0 on error.
func CountMessages(path string) int {
	if path == "" {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		count++
	}
	return count
}

// HasUserTurn reports whether the transcript contains any user message.
// A subagent transcript without one is an initial/startup agent.
func HasUserTurn(path string) bool {
	for _, e := range readEntries(path) {
		if e.Type == "user" {
			return true
		}
	}
	return false
}

// FirstSentence returns the first sentence of text, or the whole text if
// no terminator is found.
func FirstSentence(text string) string {
	if text == "" {
		return ""
	}
	for _, terminator := range []string{". ", "! ", "? ", "\n"} {
		if idx := strings.Index(text, terminator); idx >= 0 {
			return strings.TrimSpace(text[:idx+1])
		}
	}
	return text
}

func readEntries(path string) []entry {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var entries []entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
