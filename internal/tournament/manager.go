package tournament

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/game"
)

// Manager owns run lifecycle: it starts and resumes runs, enforces the
// one-active-run rule, and hands the live event buffer of each run to the
// streaming layer.
type Manager struct {
	store   Store
	decider Decider
	timeout time.Duration

	mu      sync.Mutex
	active  string
	cancel  context.CancelFunc
	done    chan struct{}
	buffers map[string]*eventlog.Buffer
}

func NewManager(store Store, decider Decider, timeout time.Duration) *Manager {
	return &Manager{
		store:   store,
		decider: decider,
		timeout: timeout,
		buffers: map[string]*eventlog.Buffer{},
	}
}

// Start validates the config, persists the initial state and launches the
// run loop in the background. It fails with ErrRunActive while another run
// is live.
func (m *Manager) Start(ctx context.Context, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != "" {
		return "", fmt.Errorf("%w: run %s is active", ErrRunActive, m.active)
	}

	runID := NewRunID()
	st := &State{
		RunID:      runID,
		Status:     StatusInProgress,
		HandNumber: 0,
		Blinds: Blinds{
			Level:          0,
			Small:          cfg.Levels[0].Small,
			Big:            cfg.Levels[0].Big,
			HandsUntilNext: cfg.Levels[0].Hands,
		},
		StartedAt: time.Now().UTC(),
		Config:    cfg,
	}
	for _, sc := range cfg.Seats {
		st.Seats = append(st.Seats, SeatState{
			Seat:    sc.Seat,
			AgentID: sc.AgentID,
			Stack:   cfg.StartingStack,
		})
	}
	sortSeats(st.Seats)
	st.Button = st.Seats[0].Seat

	if err := m.store.SaveState(ctx, st); err != nil {
		return "", fmt.Errorf("save initial state: %w", err)
	}

	recorder, start := m.launch(runID, cfg)
	if err := recorder.Append(ctx, "run_started", 0, map[string]any{
		"seats":          len(cfg.Seats),
		"starting_stack": cfg.StartingStack,
	}); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("record run start")
	}
	start()
	return runID, nil
}

// Resume restarts a persisted in-progress run. With an empty runID it picks
// the most recently started unfinished run.
func (m *Manager) Resume(ctx context.Context, runID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != "" {
		return "", fmt.Errorf("%w: run %s is active", ErrRunActive, m.active)
	}

	if runID == "" {
		latest, err := m.store.LatestUnfinished(ctx)
		if err != nil {
			return "", err
		}
		runID = latest
	}
	st, err := m.store.LoadState(ctx, runID)
	if err != nil {
		return "", err
	}
	if st.Status != StatusInProgress {
		return "", fmt.Errorf("%w: run %s is %s", ErrNotResumable, runID, st.Status)
	}

	_, start := m.launch(runID, st.Config)
	start()
	log.Info().Str("run_id", runID).Int("hand", st.HandNumber).Bool("hand_in_progress", st.HandInProgress).Msg("resuming run")
	return runID, nil
}

// launch wires recorder, pipeline and runner for a run and marks it active.
// The returned start function begins the loop goroutine, so Start can append
// run_started first and have it lead the run's event log. Caller holds m.mu.
func (m *Manager) launch(runID string, cfg Config) (*eventlog.Recorder, func()) {
	buffer := eventlog.NewBuffer(0)
	m.buffers[runID] = buffer
	recorder := eventlog.NewRecorder(runID, m.store, buffer)

	pipeline := NewPipeline(m.decider, m.timeout, cfg.rationaleLimit(), recorder)
	runner := NewRunner(runID, m.store, game.NewTable(), pipeline, recorder, cfg.raiseCap())

	runCtx, cancel := context.WithCancel(context.Background())
	m.active = runID
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done

	start := func() {
		go func() {
			defer close(done)
			if err := runner.Run(runCtx); err != nil && runCtx.Err() == nil {
				log.Error().Err(err).Str("run_id", runID).Msg("run halted")
			}
			buffer.Close()
			m.mu.Lock()
			if m.active == runID {
				m.active = ""
			}
			delete(m.buffers, runID)
			m.mu.Unlock()
		}()
	}
	return recorder, start
}

// ActiveRun reports the live run id, if any.
func (m *Manager) ActiveRun() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.active != ""
}

// Buffer returns the live event buffer for a run, or nil when the run is not
// (or no longer) streaming from this process.
func (m *Manager) Buffer(runID string) *eventlog.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffers[runID]
}

// Shutdown cancels the active run loop and waits for it to stop. Persisted
// state stays resumable.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func sortSeats(seats []SeatState) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].Seat < seats[j].Seat })
}
