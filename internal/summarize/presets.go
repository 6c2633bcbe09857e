package summarize

import "github.com/herald-notify/herald/internal/model"

// Preset announcements used whenever no generation backend is available
// or one fails. Deterministic on purpose: the same event kind always
// maps to the same text, so offline and CI behavior is reproducible.

var sessionStartPresets = map[string]string{
	"startup": "Session started",
	"resume":  "Resuming previous session",
	"clear":   "Starting fresh session",
}

var sessionEndPresets = map[string]string{
	"clear":             "Session cleared",
	"logout":            "Logging out",
	"prompt_input_exit": "Session ended",
	"other":             "Session ended",
}

const (
	presetStop          = "Work complete!"
	presetSubagentStop  = "Subagent complete"
	presetSubagentStart = "Subagent ready"
	presetNotification  = "Your attention is needed"
	presetSessionStart  = "Session started"
	presetSessionEnd    = "Session ended"
)

// Preset returns the static announcement for an event. Source and reason
// refine SessionStart and SessionEnd; everything else is keyed on the
// event kind alone.
func Preset(kind model.EventKind, payload model.Payload) string {
	switch kind {
	case model.EventSessionStart:
		if text, ok := sessionStartPresets[payload.Source]; ok {
			return text
		}
		return presetSessionStart
	case model.EventSessionEnd:
		if text, ok := sessionEndPresets[payload.Reason]; ok {
			return text
		}
		return presetSessionEnd
	case model.EventStop:
		return presetStop
	case model.EventSubagentStop:
		return presetSubagentStop
	case model.EventNotification:
		return presetNotification
	default:
		return presetNotification
	}
}
