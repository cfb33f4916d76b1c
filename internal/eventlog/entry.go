package eventlog

import "context"

// Entry is one record in a run's append-only event log. Seq is assigned by
// the durable sink at append time and is strictly increasing per run.
type Entry struct {
	Seq        int64          `json:"seq"`
	RunID      string         `json:"run_id"`
	Type       string         `json:"type"`
	HandNumber int            `json:"hand_number,omitempty"`
	ServerTS   int64          `json:"server_ts"`
	Data       map[string]any `json:"data,omitempty"`
}

// Sink persists entries durably. The store package implements this.
type Sink interface {
	AppendEvent(ctx context.Context, runID string, e *Entry) (int64, error)
}
