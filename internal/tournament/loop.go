package tournament

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"agent-arena/internal/eventlog"
)

// Runner plays one run to completion. It owns the engine and the loop; the
// Manager owns the Runner's lifecycle.
//
// Persistence is synchronous: state is saved before a hand is dealt (with
// hand_in_progress set) and again after it resolves, so a crash at any point
// leaves a state the resume path can replay from.
type Runner struct {
	runID    string
	store    Store
	eng      Engine
	pipeline *Pipeline
	recorder *eventlog.Recorder
	raiseCap int
}

func NewRunner(runID string, store Store, eng Engine, pipeline *Pipeline, recorder *eventlog.Recorder, raiseCap int) *Runner {
	if raiseCap <= 0 {
		raiseCap = DefaultRaiseCap
	}
	return &Runner{
		runID:    runID,
		store:    store,
		eng:      eng,
		pipeline: pipeline,
		recorder: recorder,
		raiseCap: raiseCap,
	}
}

// Run loops hands until one seat remains or the context is cancelled. Any
// returned error is fatal to the run; persisted state is left resumable.
func (r *Runner) Run(ctx context.Context) error {
	cond := &conductor{
		eng:      r.eng,
		pipeline: r.pipeline,
		recorder: r.recorder,
		raiseCap: r.raiseCap,
	}

	// A hand interrupted by a crash is replayed from scratch with the same
	// blinds and stacks; its partial actions were never applied to state.
	st, err := r.store.LoadState(ctx, r.runID)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	replaying := st.HandInProgress

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		alive := st.aliveSeats()
		if len(alive) <= 1 {
			return r.complete(ctx, st, alive)
		}

		if replaying {
			replaying = false
			log.Info().Str("run_id", r.runID).Int("hand", st.HandNumber).Msg("replaying interrupted hand")
		} else {
			r.prepareNextHand(st)
			if err := r.store.SaveState(ctx, st); err != nil {
				return fmt.Errorf("save state before hand %d: %w", st.HandNumber, err)
			}
		}

		if err := r.seatEngine(st); err != nil {
			return fmt.Errorf("seat engine for hand %d: %w", st.HandNumber, err)
		}

		rec, ending, err := cond.conductHand(ctx, st)
		if err != nil {
			return fmt.Errorf("hand %d: %w", st.HandNumber, err)
		}

		for seat, stack := range ending {
			ss := st.seat(seat)
			ss.Stack = stack
			if stack == 0 {
				ss.Eliminated = true
			}
		}
		st.HandInProgress = false

		if err := r.store.AppendHand(ctx, r.runID, rec); err != nil {
			return fmt.Errorf("append hand %d: %w", st.HandNumber, err)
		}
		if err := r.store.SaveState(ctx, st); err != nil {
			return fmt.Errorf("save state after hand %d: %w", st.HandNumber, err)
		}

		st, err = r.store.LoadState(ctx, r.runID)
		if err != nil {
			return fmt.Errorf("reload state: %w", err)
		}
	}
}

// prepareNextHand advances the button, bumps the hand number and steps the
// blind schedule, pinning at the final level.
func (r *Runner) prepareNextHand(st *State) {
	if st.HandNumber > 0 {
		st.Button = r.nextButton(st)
		st.Blinds.HandsUntilNext--
		if st.Blinds.HandsUntilNext <= 0 {
			if st.Blinds.Level+1 < len(st.Config.Levels) {
				st.Blinds.Level++
			}
			lvl := st.Config.Levels[st.Blinds.Level]
			st.Blinds.Small = lvl.Small
			st.Blinds.Big = lvl.Big
			st.Blinds.HandsUntilNext = lvl.Hands
		}
	}
	st.HandNumber++
	st.HandInProgress = true
}

// nextButton finds the next non-eliminated seat clockwise from the button.
// aliveSeats is ascending, so the first seat past the button wins, wrapping
// to the lowest.
func (r *Runner) nextButton(st *State) int {
	alive := st.aliveSeats()
	if len(alive) == 0 {
		return st.Button
	}
	for _, s := range alive {
		if s.Seat > st.Button {
			return s.Seat
		}
	}
	return alive[0].Seat
}

// seatEngine makes the engine roster match persisted state exactly. Stacks
// always come from state, never from whatever the engine last held, which
// makes the normal and resume paths identical.
func (r *Runner) seatEngine(st *State) error {
	for _, seat := range r.eng.Seated() {
		if err := r.eng.Stand(seat); err != nil {
			return err
		}
	}
	for _, s := range st.aliveSeats() {
		if s.Stack <= 0 {
			continue
		}
		if err := r.eng.Sit(s.Seat, s.AgentID, s.Stack); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) complete(ctx context.Context, st *State, alive []SeatState) error {
	st.Status = StatusCompleted
	now := time.Now().UTC()
	st.CompletedAt = &now
	st.HandInProgress = false
	if len(alive) == 1 {
		w := alive[0].Seat
		st.Winner = &w
	}
	if err := r.store.SaveState(ctx, st); err != nil {
		return fmt.Errorf("save completed state: %w", err)
	}

	data := map[string]any{"hands_played": st.HandNumber}
	if st.Winner != nil {
		data["winner"] = *st.Winner
		data["winner_agent"] = st.seat(*st.Winner).AgentID
	}
	if err := r.recorder.Append(ctx, "run_completed", st.HandNumber, data); err != nil {
		return err
	}
	log.Info().Str("run_id", r.runID).Int("hands", st.HandNumber).Msg("run completed")
	return nil
}
