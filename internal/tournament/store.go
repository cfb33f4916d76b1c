package tournament

import (
	"context"
	"errors"

	"agent-arena/internal/eventlog"
)

// ErrNotFound is returned by stores for missing runs, hands and states.
var ErrNotFound = errors.New("not_found")

// Store is the durable persistence contract for runs. Implementations live in
// the store package (postgres, memory).
//
// AppendHand is an upsert keyed by hand number: replaying an interrupted hand
// after a resume overwrites the stale record instead of duplicating it.
type Store interface {
	SaveState(ctx context.Context, st *State) error
	LoadState(ctx context.Context, runID string) (*State, error)

	AppendHand(ctx context.Context, runID string, rec *HandRecord) error
	GetHand(ctx context.Context, runID string, handNumber int) (*HandRecord, error)
	ListHands(ctx context.Context, runID string) ([]HandRecord, error)

	ListRuns(ctx context.Context) ([]RunSummary, error)

	// LatestUnfinished returns the most recently started run still in
	// progress, or ErrNotFound.
	LatestUnfinished(ctx context.Context) (string, error)

	// ListEvents returns persisted log entries with Seq > afterSeq, oldest
	// first. Pass 0 for a full replay.
	ListEvents(ctx context.Context, runID string, afterSeq int64) ([]eventlog.Entry, error)

	eventlog.Sink
}
