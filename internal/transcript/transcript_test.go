package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func userLine(text string) string {
	return `{"type":"user","message":{"content":[{"type":"text","text":"` + text + `"}]}}`
}

func assistantLine(text string) string {
	return `{"type":"assistant","message":{"content":[{"type":"text","text":"` + text + `"}]}}`
}

func TestLastAssistantMessage(t *testing.T) {
	path := writeTranscript(t,
		userLine("fix the bug"),
		assistantLine("Looking into it."),
		userLine("and add a test"),
		assistantLine("I fixed the race condition"),
		assistantLine("and added a regression test."),
	)

	got := LastAssistantMessage(path)
	assert.Equal(t, "I fixed the race condition and added a regression test.", got)
}

func TestLastAssistantMessage_NoUserTurn(t *testing.T) {
	path := writeTranscript(t,
		assistantLine("Initial analysis complete."),
	)

	assert.Equal(t, "Initial analysis complete.", LastAssistantMessage(path))
}

func TestLastAssistantMessage_SkipsMalformedLines(t *testing.T) {
	path := writeTranscript(t,
		userLine("go"),
		"{not json",
		assistantLine("Done."),
		"",
	)

	assert.Equal(t, "Done.", LastAssistantMessage(path))
}

func TestLastAssistantMessage_MissingFile(t *testing.T) {
	assert.Empty(t, LastAssistantMessage(filepath.Join(t.TempDir(), "nope.jsonl")))
	assert.Empty(t, LastAssistantMessage(""))
}

func TestLastAssistantMessage_IgnoresNonTextBlocks(t *testing.T) {
	path := writeTranscript(t,
		userLine("run it"),
		`{"type":"assistant","message":{"content":[{"type":"tool_use"},{"type":"text","text":"Tests pass."}]}}`,
	)

	assert.Equal(t, "Tests pass.", LastAssistantMessage(path))
}

func TestCountMessages(t *testing.T) {
	path := writeTranscript(t, userLine("a"), assistantLine("b"), assistantLine("c"))
	assert.Equal(t, 3, CountMessages(path))
	assert.Equal(t, 0, CountMessages(""))
	assert.Equal(t, 0, CountMessages(filepath.Join(t.TempDir(), "nope.jsonl")))
}

func TestHasUserTurn(t *testing.T) {
	withUser := writeTranscript(t, assistantLine("hi"), userLine("hello"))
	withoutUser := writeTranscript(t, assistantLine("hi"))

	assert.True(t, HasUserTurn(withUser))
	assert.False(t, HasUserTurn(withoutUser))
}

func TestFirstSentence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"period", "Build fixed. All tests pass now.", "Build fixed."},
		{"exclamation", "Work complete! Next up is the release.", "Work complete!"},
		{"newline", "Refactored the parser\nand the lexer", "Refactored the parser"},
		{"no terminator", "Short status", "Short status"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstSentence(tt.in))
		})
	}
}
