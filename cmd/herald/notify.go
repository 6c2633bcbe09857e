package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/herald-notify/herald/internal/dispatch"
	"github.com/herald-notify/herald/internal/model"
	"github.com/herald-notify/herald/internal/summarize"
)

var notifyOpts struct {
	event string
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Dispatch a lifecycle event for announcement",
	Long: `Dispatch one lifecycle event. The event payload is read as JSON from
stdin, the announcement text is generated (or a preset chosen) and the
request is enqueued for asynchronous playback.

The exit status reflects only this invocation: playback happens later,
from the consumer, and its outcome is visible only in the event log.

Example hook wiring:

  echo '{"session_id":"abc"}' | herald notify --event Stop`,
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringVar(&notifyOpts.event, "event", "",
		"Event kind (SessionStart, SessionEnd, Stop, SubagentStop, Notification)")
	_ = notifyCmd.MarkFlagRequired("event")
}

func runNotify(cmd *cobra.Command, args []string) error {
	kind, err := model.ParseEventKind(notifyOpts.event)
	if err != nil {
		// Misuse of the CLI itself, not a delivery failure.
		return err
	}

	var payload model.Payload
	if err := json.NewDecoder(os.Stdin).Decode(&payload); err != nil {
		// A malformed payload must not fail the hook; announce nothing.
		logger.Error("failed to decode payload", "event_kind", kind, "error", err)
		return nil
	}

	summarizer := summarize.New(cfg, logger)
	dispatcher := dispatch.New(cfg, summarizer, spool, logger)
	dispatcher.Notify(cmd.Context(), kind, payload)

	return nil
}
