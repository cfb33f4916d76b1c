package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"agent-arena/internal/config"
	"agent-arena/internal/store"
	"agent-arena/internal/tournament"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(st tournament.Store, adminKey string, decider tournament.Decider) (*chi.Mux, *tournament.Manager) {
	manager := tournament.NewManager(st, decider, time.Second)
	cfg := config.ServerConfig{AdminAPIKey: adminKey}
	defaults := config.TournamentConfig{
		StartingStack:  1000,
		BlindSchedule:  "10/20x10,20/40x10",
		RaiseCap:       2,
		RationaleLimit: 2000,
	}
	return newRouter(st, nil, cfg, defaults, manager), manager
}

// blockedDecider never answers, which keeps a started run active until the
// returned release func is called.
func blockedDecider(t *testing.T) (tournament.Decider, func()) {
	t.Helper()
	block := make(chan struct{})
	var once sync.Once
	d := tournament.DeciderFunc(func(ctx context.Context, dc tournament.DecisionContext) (tournament.Decision, error) {
		<-block
		return tournament.Decision{Action: "fold"}, nil
	})
	return d, func() { once.Do(func() { close(block) }) }
}

func foldDecider() tournament.Decider {
	return tournament.DeciderFunc(func(ctx context.Context, dc tournament.DecisionContext) (tournament.Decision, error) {
		return tournament.Decision{Action: "fold"}, nil
	})
}

func testRunConfig() tournament.Config {
	return tournament.Config{
		StartingStack: 1000,
		Levels:        []tournament.BlindLevel{{Small: 10, Big: 20, Hands: 10}},
		Seats: []tournament.SeatConfig{
			{Seat: 0, AgentID: "alpha"},
			{Seat: 1, AgentID: "beta"},
			{Seat: 2, AgentID: "gamma"},
		},
	}
}

func seedState(t *testing.T, st tournament.Store, runID string, status tournament.Status) *tournament.State {
	t.Helper()
	state := &tournament.State{
		RunID:      runID,
		Status:     status,
		HandNumber: 1,
		Seats: []tournament.SeatState{
			{Seat: 0, AgentID: "alpha", Stack: 990},
			{Seat: 1, AgentID: "beta", Stack: 2010},
		},
		Blinds:    tournament.Blinds{Small: 10, Big: 20, HandsUntilNext: 9},
		StartedAt: time.Now().UTC(),
		Config:    testRunConfig(),
	}
	if err := st.SaveState(context.Background(), state); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	return state
}

func newMemoryStore() *store.Memory {
	return store.NewMemory()
}
