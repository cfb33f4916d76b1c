package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/tournament"
)

// Memory is the in-process store used when no database is configured, and by
// tests. It round-trips values through JSON so callers see the same copy
// semantics as the postgres store.
type Memory struct {
	mu      sync.Mutex
	states  map[string][]byte
	updated map[string]time.Time
	hands   map[string]map[int][]byte
	events  map[string][]eventlog.Entry
}

var _ tournament.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		states:  map[string][]byte{},
		updated: map[string]time.Time{},
		hands:   map[string]map[int][]byte{},
		events:  map[string][]eventlog.Entry{},
	}
}

func (s *Memory) SaveState(_ context.Context, st *tournament.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.RunID] = blob
	s.updated[st.RunID] = time.Now().UTC()
	return nil
}

func (s *Memory) LoadState(_ context.Context, runID string) (*tournament.State, error) {
	s.mu.Lock()
	blob, ok := s.states[runID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: run %s", tournament.ErrNotFound, runID)
	}
	var st tournament.State
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Memory) AppendHand(_ context.Context, runID string, rec *tournament.HandRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hands[runID] == nil {
		s.hands[runID] = map[int][]byte{}
	}
	s.hands[runID][rec.HandNumber] = blob
	return nil
}

func (s *Memory) GetHand(_ context.Context, runID string, handNumber int) (*tournament.HandRecord, error) {
	s.mu.Lock()
	blob, ok := s.hands[runID][handNumber]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: run %s hand %d", tournament.ErrNotFound, runID, handNumber)
	}
	var rec tournament.HandRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Memory) ListHands(_ context.Context, runID string) ([]tournament.HandRecord, error) {
	s.mu.Lock()
	nums := make([]int, 0, len(s.hands[runID]))
	for n := range s.hands[runID] {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	blobs := make([][]byte, 0, len(nums))
	for _, n := range nums {
		blobs = append(blobs, s.hands[runID][n])
	}
	s.mu.Unlock()

	out := make([]tournament.HandRecord, 0, len(blobs))
	for _, blob := range blobs {
		var rec tournament.HandRecord
		if err := json.Unmarshal(blob, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Memory) ListRuns(_ context.Context) ([]tournament.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tournament.RunSummary, 0, len(s.states))
	for runID, blob := range s.states {
		var st tournament.State
		if err := json.Unmarshal(blob, &st); err != nil {
			return nil, err
		}
		out = append(out, summarize(&st, s.updated[runID]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *Memory) LatestUnfinished(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *tournament.State
	for _, blob := range s.states {
		var st tournament.State
		if err := json.Unmarshal(blob, &st); err != nil {
			return "", err
		}
		if st.Status != tournament.StatusInProgress {
			continue
		}
		if best == nil || st.StartedAt.After(best.StartedAt) {
			cp := st
			best = &cp
		}
	}
	if best == nil {
		return "", fmt.Errorf("%w: no unfinished run", tournament.ErrNotFound)
	}
	return best.RunID, nil
}

func (s *Memory) AppendEvent(_ context.Context, runID string, e *eventlog.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := int64(len(s.events[runID]) + 1)
	e.Seq = seq
	s.events[runID] = append(s.events[runID], *e)
	return seq, nil
}

func (s *Memory) ListEvents(_ context.Context, runID string, afterSeq int64) ([]eventlog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.events[runID]
	out := make([]eventlog.Entry, 0, len(all))
	for _, e := range all {
		if e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	return out, nil
}
