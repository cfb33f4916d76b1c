package tournament

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/game"
)

// fakeStore is an in-test Store with the same copy semantics as the real
// ones: values round-trip through JSON.
type fakeStore struct {
	mu     sync.Mutex
	states map[string][]byte
	hands  map[string]map[int][]byte
	events map[string][]eventlog.Entry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		states: map[string][]byte{},
		hands:  map[string]map[int][]byte{},
		events: map[string][]eventlog.Entry{},
	}
}

func (s *fakeStore) SaveState(_ context.Context, st *State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.RunID] = blob
	return nil
}

func (s *fakeStore) LoadState(_ context.Context, runID string) (*State, error) {
	s.mu.Lock()
	blob, ok := s.states[runID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	var st State
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *fakeStore) AppendHand(_ context.Context, runID string, rec *HandRecord) error {
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

func (s *fakeStore) GetHand(_ context.Context, runID string, handNumber int) (*HandRecord, error) {
	s.mu.Lock()
	blob, ok := s.hands[runID][handNumber]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: hand %d", ErrNotFound, handNumber)
	}
	var rec HandRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *fakeStore) ListHands(_ context.Context, runID string) ([]HandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nums := make([]int, 0, len(s.hands[runID]))
	for n := range s.hands[runID] {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	out := make([]HandRecord, 0, len(nums))
	for _, n := range nums {
		var rec HandRecord
		if err := json.Unmarshal(s.hands[runID][n], &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakeStore) ListRuns(_ context.Context) ([]RunSummary, error) {
	return nil, nil
}

func (s *fakeStore) LatestUnfinished(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *State
	for _, blob := range s.states {
		var st State
		if err := json.Unmarshal(blob, &st); err != nil {
			return "", err
		}
		if st.Status != StatusInProgress {
			continue
		}
		if best == nil || st.StartedAt.After(best.StartedAt) {
			cp := st
			best = &cp
		}
	}
	if best == nil {
		return "", fmt.Errorf("%w: no unfinished run", ErrNotFound)
	}
	return best.RunID, nil
}

func (s *fakeStore) AppendEvent(_ context.Context, runID string, e *eventlog.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Seq = int64(len(s.events[runID]) + 1)
	s.events[runID] = append(s.events[runID], *e)
	return e.Seq, nil
}

func (s *fakeStore) ListEvents(_ context.Context, runID string, afterSeq int64) ([]eventlog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []eventlog.Entry
	for _, e := range s.events[runID] {
		if e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) eventTypes(runID string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for _, e := range s.events[runID] {
		out[e.Type]++
	}
	return out
}

func quickConfig() Config {
	return Config{
		StartingStack: 60,
		Levels:        []BlindLevel{{Small: 30, Big: 60, Hands: 1000}},
		Seats: []SeatConfig{
			{Seat: 0, AgentID: "alpha"},
			{Seat: 1, AgentID: "beta"},
		},
	}
}

func waitForCompletion(t *testing.T, st Store, runID string, timeout time.Duration) *State {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		state, err := st.LoadState(context.Background(), runID)
		if err != nil {
			t.Fatalf("load state: %v", err)
		}
		if state.Status == StatusCompleted {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not complete in %s", runID, timeout)
	return nil
}

func TestManagerRunsTournamentToCompletion(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st, passiveDecider(), time.Second)

	runID, err := m.Start(context.Background(), quickConfig())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	final := waitForCompletion(t, st, runID, 30*time.Second)
	if final.Winner == nil {
		t.Fatalf("completed run has no winner")
	}
	if final.CompletedAt == nil {
		t.Fatalf("completed run has no completion timestamp")
	}

	var total int64
	for _, seat := range final.Seats {
		total += seat.Stack
		if seat.Stack == 0 && !seat.Eliminated {
			t.Fatalf("busted seat %d not eliminated", seat.Seat)
		}
		if seat.Stack > 0 && seat.Eliminated {
			t.Fatalf("eliminated seat %d still has chips", seat.Seat)
		}
	}
	if total != 120 {
		t.Fatalf("final chips = %d, want 120", total)
	}
	winner := final.seat(*final.Winner)
	if winner == nil || winner.Stack != 120 {
		t.Fatalf("winner should hold all chips: %+v", winner)
	}

	hands, err := st.ListHands(context.Background(), runID)
	if err != nil {
		t.Fatalf("list hands: %v", err)
	}
	if len(hands) != final.HandNumber {
		t.Fatalf("recorded %d hands, state says %d", len(hands), final.HandNumber)
	}
	for _, h := range hands {
		var start, end int64
		for _, sr := range h.Seats {
			start += sr.StartingStack
			end += sr.EndingStack
		}
		if start != end {
			t.Fatalf("hand %d: chips in %d != chips out %d", h.HandNumber, start, end)
		}
	}

	types := st.eventTypes(runID)
	for _, want := range []string{"run_started", "hand_started", "decision", "hand_resolved", "run_completed"} {
		if types[want] == 0 {
			t.Fatalf("no %q events recorded (got %v)", want, types)
		}
	}

	if _, err := st.LatestUnfinished(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("latest unfinished after completion = %v, want ErrNotFound", err)
	}
}

func TestManagerStartLogsRunStartedFirst(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st, passiveDecider(), time.Second)

	runID, err := m.Start(context.Background(), quickConfig())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForCompletion(t, st, runID, 30*time.Second)
	m.Shutdown()

	events, err := st.ListEvents(context.Background(), runID, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("no events recorded")
	}
	if events[0].Type != "run_started" || events[0].Seq != 1 {
		t.Fatalf("first event = %s seq %d, want run_started at seq 1", events[0].Type, events[0].Seq)
	}
}

func TestManagerReleasesBufferWhenRunEnds(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st, passiveDecider(), time.Second)

	runID, err := m.Start(context.Background(), quickConfig())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if m.Buffer(runID) == nil {
		t.Fatalf("live run should expose its buffer")
	}

	waitForCompletion(t, st, runID, 30*time.Second)
	m.Shutdown()

	if m.Buffer(runID) != nil {
		t.Fatalf("finished run still holds its buffer")
	}
	if id, active := m.ActiveRun(); active {
		t.Fatalf("run %s still active after completion", id)
	}
}

func TestManagerRejectsConcurrentStart(t *testing.T) {
	st := newFakeStore()
	release := make(chan struct{})
	blocking := DeciderFunc(func(_ context.Context, dc DecisionContext) (Decision, error) {
		<-release
		return Decision{Action: "fold"}, nil
	})
	m := NewManager(st, blocking, time.Minute)
	t.Cleanup(func() {
		close(release)
		m.Shutdown()
	})

	if _, err := m.Start(context.Background(), quickConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.Start(context.Background(), quickConfig()); !errors.Is(err, ErrRunActive) {
		t.Fatalf("second start = %v, want ErrRunActive", err)
	}
	if _, err := m.Resume(context.Background(), ""); !errors.Is(err, ErrRunActive) {
		t.Fatalf("resume while active = %v, want ErrRunActive", err)
	}
}

func TestManagerStartValidatesConfig(t *testing.T) {
	m := NewManager(newFakeStore(), passiveDecider(), time.Second)
	cfg := quickConfig()
	cfg.Seats = cfg.Seats[:1]
	if _, err := m.Start(context.Background(), cfg); !errors.Is(err, ErrBadConfig) {
		t.Fatalf("start with one seat = %v, want ErrBadConfig", err)
	}
}

func TestManagerResumeReplaysInterruptedHand(t *testing.T) {
	st := newFakeStore()
	interrupted := &State{
		RunID:      "run-resume",
		Status:     StatusInProgress,
		HandNumber: 3,
		Seats: []SeatState{
			{Seat: 0, AgentID: "alpha", Stack: 80},
			{Seat: 1, AgentID: "beta", Stack: 40},
		},
		Blinds:         Blinds{Level: 0, Small: 10, Big: 20, HandsUntilNext: 500},
		Button:         0,
		StartedAt:      time.Now().UTC(),
		HandInProgress: true,
		Config: Config{
			StartingStack: 60,
			Levels:        []BlindLevel{{Small: 10, Big: 20, Hands: 500}},
			Seats: []SeatConfig{
				{Seat: 0, AgentID: "alpha"},
				{Seat: 1, AgentID: "beta"},
			},
		},
	}
	if err := st.SaveState(context.Background(), interrupted); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	m := NewManager(st, passiveDecider(), time.Second)
	runID, err := m.Resume(context.Background(), "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if runID != "run-resume" {
		t.Fatalf("resumed %q, want run-resume", runID)
	}

	final := waitForCompletion(t, st, runID, 30*time.Second)

	// The interrupted hand was replayed with its persisted stacks, not the
	// configured starting stacks.
	replayed, err := st.GetHand(context.Background(), runID, 3)
	if err != nil {
		t.Fatalf("get replayed hand: %v", err)
	}
	startingBySeat := map[int]int64{}
	for _, sr := range replayed.Seats {
		startingBySeat[sr.Seat] = sr.StartingStack
	}
	if startingBySeat[0] != 80 || startingBySeat[1] != 40 {
		t.Fatalf("replayed hand starting stacks = %v, want 80/40", startingBySeat)
	}

	var total int64
	for _, seat := range final.Seats {
		total += seat.Stack
	}
	if total != 120 {
		t.Fatalf("final chips = %d, want 120", total)
	}
}

func TestManagerResumeErrors(t *testing.T) {
	st := newFakeStore()
	m := NewManager(st, passiveDecider(), time.Second)

	if _, err := m.Resume(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("resume with nothing = %v, want ErrNotFound", err)
	}

	done := &State{
		RunID:     "run-done",
		Status:    StatusCompleted,
		StartedAt: time.Now().UTC(),
	}
	if err := st.SaveState(context.Background(), done); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	if _, err := m.Resume(context.Background(), "run-done"); !errors.Is(err, ErrNotResumable) {
		t.Fatalf("resume completed = %v, want ErrNotResumable", err)
	}
}

func TestPrepareNextHandBlindEscalationPinsAtFinalLevel(t *testing.T) {
	cfg := Config{
		StartingStack: 1000,
		Levels: []BlindLevel{
			{Small: 10, Big: 20, Hands: 2},
			{Small: 20, Big: 40, Hands: 2},
			{Small: 50, Big: 100, Hands: 3},
		},
		Seats: []SeatConfig{{Seat: 0, AgentID: "a"}, {Seat: 1, AgentID: "b"}},
	}
	st := &State{
		RunID:  "run-blinds",
		Seats:  []SeatState{{Seat: 0, Stack: 1000}, {Seat: 1, Stack: 1000}},
		Blinds: Blinds{Level: 0, Small: 10, Big: 20, HandsUntilNext: 2},
		Config: cfg,
	}
	r := &Runner{}

	type step struct {
		level int
		small int64
		big   int64
	}
	want := []step{
		{0, 10, 20}, // hand 1
		{0, 10, 20}, // hand 2
		{1, 20, 40}, // hand 3
		{1, 20, 40}, // hand 4
		{2, 50, 100}, // hand 5
		{2, 50, 100}, // hand 6
		{2, 50, 100}, // hand 7
		{2, 50, 100}, // hand 8: pinned at the final level
		{2, 50, 100}, // hand 9
	}
	for i, w := range want {
		r.prepareNextHand(st)
		if st.HandNumber != i+1 {
			t.Fatalf("hand number = %d, want %d", st.HandNumber, i+1)
		}
		if st.Blinds.Level != w.level || st.Blinds.Small != w.small || st.Blinds.Big != w.big {
			t.Fatalf("hand %d blinds = %+v, want level %d %d/%d", i+1, st.Blinds, w.level, w.small, w.big)
		}
		if !st.HandInProgress {
			t.Fatalf("hand %d not flagged in progress", i+1)
		}
		st.HandInProgress = false
	}
}

func TestPrepareNextHandAdvancesButtonPastEliminated(t *testing.T) {
	st := &State{
		RunID:      "run-button",
		HandNumber: 1,
		Seats: []SeatState{
			{Seat: 0, Stack: 100},
			{Seat: 1, Eliminated: true},
			{Seat: 2, Stack: 100},
		},
		Blinds: Blinds{Level: 0, Small: 10, Big: 20, HandsUntilNext: 100},
		Button: 0,
		Config: Config{Levels: []BlindLevel{{Small: 10, Big: 20, Hands: 100}}},
	}
	r := &Runner{}

	r.prepareNextHand(st)
	if st.Button != 2 {
		t.Fatalf("button = %d, want 2 (seat 1 eliminated)", st.Button)
	}
	r.prepareNextHand(st)
	if st.Button != 0 {
		t.Fatalf("button = %d, want wrap to 0", st.Button)
	}
}

func TestSeatEngineUsesPersistedStacks(t *testing.T) {
	tbl := game.NewTable()
	// Stale roster from a previous hand.
	if err := tbl.Sit(0, "alpha", 999); err != nil {
		t.Fatalf("sit: %v", err)
	}
	if err := tbl.Sit(1, "beta", 999); err != nil {
		t.Fatalf("sit: %v", err)
	}

	st := &State{
		Seats: []SeatState{
			{Seat: 0, AgentID: "alpha", Stack: 80},
			{Seat: 1, AgentID: "beta", Eliminated: true},
			{Seat: 2, AgentID: "gamma", Stack: 40},
		},
	}
	r := &Runner{eng: tbl}
	if err := r.seatEngine(st); err != nil {
		t.Fatalf("seat engine: %v", err)
	}

	seated := tbl.Seated()
	if len(seated) != 2 || seated[0] != 0 || seated[1] != 2 {
		t.Fatalf("seated = %v, want [0 2]", seated)
	}

	if err := tbl.StartHand(0, 10, 20); err != nil {
		t.Fatalf("start hand: %v", err)
	}
	stack0, err := tbl.SeatStack(0)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	bet0, err := tbl.SeatBet(0)
	if err != nil {
		t.Fatalf("bet: %v", err)
	}
	if stack0+bet0 != 80 {
		t.Fatalf("seat 0 chips = %d, want persisted 80", stack0+bet0)
	}
}
