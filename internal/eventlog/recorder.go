package eventlog

import (
	"context"
	"time"
)

// Recorder appends entries for one run: durably through the sink first, then
// to the live buffer. An entry is not considered recorded until the sink
// write has succeeded, so a sink failure propagates to the caller.
type Recorder struct {
	runID  string
	sink   Sink
	buffer *Buffer
}

func NewRecorder(runID string, sink Sink, buffer *Buffer) *Recorder {
	return &Recorder{runID: runID, sink: sink, buffer: buffer}
}

func (r *Recorder) Buffer() *Buffer { return r.buffer }

func (r *Recorder) Append(ctx context.Context, typ string, handNumber int, data map[string]any) error {
	e := Entry{
		RunID:      r.runID,
		Type:       typ,
		HandNumber: handNumber,
		ServerTS:   time.Now().UnixMilli(),
		Data:       data,
	}
	seq, err := r.sink.AppendEvent(ctx, r.runID, &e)
	if err != nil {
		return err
	}
	e.Seq = seq
	r.buffer.Publish(e)
	return nil
}
