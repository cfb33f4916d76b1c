package tournament

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/game"
)

// handTracker mirrors the engine facts that become unreadable once the hand
// transitions past its end. capture refreshes it after every action and
// before the showdown trigger; resolution reads only from the tracker.
type handTracker struct {
	street game.Street
	board  []game.Card
	stacks map[int]int64
	pots   []game.Pot
}

func (t *handTracker) capture(eng Engine) error {
	street, err := eng.Street()
	if err != nil {
		return err
	}
	board, err := eng.Community()
	if err != nil {
		return err
	}
	pots, err := eng.Pots()
	if err != nil {
		return err
	}
	stacks := make(map[int]int64, len(t.stacks))
	for _, seat := range eng.Seated() {
		s, err := eng.SeatStack(seat)
		if err != nil {
			return err
		}
		stacks[seat] = s
	}
	t.street = street
	t.board = board
	t.pots = pots
	t.stacks = stacks
	return nil
}

func (t *handTracker) potTotal() int64 {
	var total int64
	for _, p := range t.pots {
		total += p.Amount
	}
	return total
}

// conductor drives one hand from deal to resolution against the engine.
type conductor struct {
	eng      Engine
	pipeline *Pipeline
	recorder *eventlog.Recorder
	raiseCap int
}

// conductHand plays st.HandNumber to completion and returns the immutable
// hand record plus the ending stack of every dealt-in seat. It never reads
// the engine after the hand has ended.
func (c *conductor) conductHand(ctx context.Context, st *State) (*HandRecord, map[int]int64, error) {
	if err := c.eng.StartHand(st.Button, st.Blinds.Small, st.Blinds.Big); err != nil {
		return nil, nil, fmt.Errorf("start hand %d: %w", st.HandNumber, err)
	}

	dealt, err := c.eng.InHandSeats()
	if err != nil {
		return nil, nil, err
	}
	starting := make(map[int]int64, len(dealt))
	for _, seat := range dealt {
		ss := st.seat(seat)
		if ss == nil {
			return nil, nil, fmt.Errorf("dealt seat %d missing from run state", seat)
		}
		starting[seat] = ss.Stack
	}

	if err := c.appendEvent(ctx, "hand_started", st.HandNumber, map[string]any{
		"button":      st.Button,
		"small_blind": st.Blinds.Small,
		"big_blind":   st.Blinds.Big,
		"seats":       dealt,
	}); err != nil {
		return nil, nil, err
	}

	tracker := &handTracker{}
	if err := tracker.capture(c.eng); err != nil {
		return nil, nil, fmt.Errorf("initial capture: %w", err)
	}

	folded := map[int]bool{}
	var actions []ActionRecord
	raisesThisRound := 0

	for {
		seat, err := c.eng.ActingSeat()
		switch {
		case errors.Is(err, game.ErrHandOver):
			return c.resolveFoldOut(ctx, st, tracker, starting, dealt, folded, actions)
		case errors.Is(err, game.ErrNoActor):
			if tracker.street == game.StreetRiver {
				return c.resolveShowdown(ctx, st, tracker, starting, dealt, folded, actions)
			}
			if err := c.eng.AdvanceStreet(); err != nil {
				return nil, nil, fmt.Errorf("advance street: %w", err)
			}
			raisesThisRound = 0
			c.track(tracker)
			if err := c.appendEvent(ctx, "street_advanced", st.HandNumber, map[string]any{
				"street": string(tracker.street),
				"board":  game.CardStrings(tracker.board),
			}); err != nil {
				return nil, nil, err
			}
			continue
		case err != nil:
			return nil, nil, fmt.Errorf("acting seat: %w", err)
		}

		la, err := c.eng.LegalActions()
		if err != nil {
			return nil, nil, fmt.Errorf("legal actions: %w", err)
		}
		dc, err := buildContext(c.eng, st, seat, la)
		if err != nil {
			return nil, nil, fmt.Errorf("build context: %w", err)
		}
		res, err := c.pipeline.Decide(ctx, dc, la, raisesThisRound >= c.raiseCap)
		if err != nil {
			return nil, nil, fmt.Errorf("record decision: %w", err)
		}
		if err := c.eng.Apply(res.Action, res.Amount); err != nil {
			return nil, nil, fmt.Errorf("apply %s by seat %d: %w", res.Action, seat, err)
		}
		if res.Action == game.ActionBet || res.Action == game.ActionRaise {
			raisesThisRound++
		}
		if res.Action == game.ActionFold {
			folded[seat] = true
		}
		actions = append(actions, ActionRecord{
			Seat:      seat,
			Action:    string(res.Action),
			Amount:    res.Amount,
			Street:    dc.Street,
			LatencyMS: res.LatencyMS,
		})
		c.track(tracker)
	}
}

// track refreshes the snapshot, falling back to the last good one when the
// hand has already ended underneath us.
func (c *conductor) track(tracker *handTracker) {
	if err := tracker.capture(c.eng); err != nil {
		log.Warn().Err(err).Msg("state capture failed, keeping last snapshot")
	}
}

// resolveFoldOut settles a hand that ended with a single un-folded seat. The
// engine has already paid the pot; the tracker plus the folded set are our
// only view of it.
func (c *conductor) resolveFoldOut(ctx context.Context, st *State, tracker *handTracker, starting map[int]int64, dealt []int, folded map[int]bool, actions []ActionRecord) (*HandRecord, map[int]int64, error) {
	winner := -1
	for _, seat := range dealt {
		if !folded[seat] {
			winner = seat
			break
		}
	}
	if winner == -1 {
		return nil, nil, fmt.Errorf("hand %d ended with no unfolded seat", st.HandNumber)
	}

	pot := tracker.potTotal()
	ending := make(map[int]int64, len(dealt))
	for _, seat := range dealt {
		ending[seat] = tracker.stacks[seat]
	}
	ending[winner] += pot

	winners := []WinnerRecord{{Seat: winner, RankCategory: FoldWinRank, AmountWon: pot}}
	rec := c.buildRecord(st, tracker, starting, ending, dealt, nil, actions, winners)

	if err := c.appendResolved(ctx, st.HandNumber, rec); err != nil {
		return nil, nil, err
	}
	return rec, ending, nil
}

// resolveShowdown captures the final snapshot, triggers showdown, and pays
// out the tracked pots with the ranks returned by that single call.
func (c *conductor) resolveShowdown(ctx context.Context, st *State, tracker *handTracker, starting map[int]int64, dealt []int, folded map[int]bool, actions []ActionRecord) (*HandRecord, map[int]int64, error) {
	// Last readable moment: pots, stacks and hole cards all vanish with the
	// showdown transition.
	c.track(tracker)
	holes := make(map[int][]game.Card, len(dealt))
	for _, seat := range dealt {
		if folded[seat] {
			continue
		}
		h, err := c.eng.Hole(seat)
		if err != nil {
			log.Warn().Err(err).Int("seat", seat).Msg("hole card capture failed")
			continue
		}
		holes[seat] = h
	}

	seatRanks, err := c.eng.FinishShowdown()
	if err != nil {
		return nil, nil, fmt.Errorf("showdown: %w", err)
	}
	ranks := make(map[int]game.HandRank, len(seatRanks))
	for _, sr := range seatRanks {
		ranks[sr.Seat] = sr.Rank
	}

	won := map[int]int64{}
	for _, pot := range tracker.pots {
		potWinners := game.BestOf(pot.Eligible, ranks)
		for seat, amount := range game.SplitPot(pot.Amount, potWinners) {
			won[seat] += amount
		}
	}

	ending := make(map[int]int64, len(dealt))
	for _, seat := range dealt {
		ending[seat] = tracker.stacks[seat] + won[seat]
	}

	winners := make([]WinnerRecord, 0, len(won))
	for _, sr := range seatRanks {
		amount, ok := won[sr.Seat]
		if !ok {
			continue
		}
		winners = append(winners, WinnerRecord{
			Seat:         sr.Seat,
			RankCategory: sr.Category.String(),
			WinningCards: game.CardStrings(sr.BestFive),
			AmountWon:    amount,
		})
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i].Seat < winners[j].Seat })

	rec := c.buildRecord(st, tracker, starting, ending, dealt, holes, actions, winners)
	if err := c.appendResolved(ctx, st.HandNumber, rec); err != nil {
		return nil, nil, err
	}
	return rec, ending, nil
}

func (c *conductor) buildRecord(st *State, tracker *handTracker, starting, ending map[int]int64, dealt []int, holes map[int][]game.Card, actions []ActionRecord, winners []WinnerRecord) *HandRecord {
	seats := make([]SeatResult, 0, len(dealt))
	for _, seat := range dealt {
		ss := st.seat(seat)
		sr := SeatResult{
			Seat:          seat,
			AgentID:       ss.AgentID,
			StartingStack: starting[seat],
			EndingStack:   ending[seat],
		}
		if h, ok := holes[seat]; ok {
			sr.HoleCards = game.CardStrings(h)
		}
		seats = append(seats, sr)
	}

	pots := make([]PotRecord, 0, len(tracker.pots))
	for _, p := range tracker.pots {
		pots = append(pots, PotRecord{Amount: p.Amount, Eligible: p.Eligible})
	}

	return &HandRecord{
		HandNumber: st.HandNumber,
		Seats:      seats,
		Board:      game.CardStrings(tracker.board),
		Actions:    actions,
		Pots:       pots,
		Winners:    winners,
		SmallBlind: st.Blinds.Small,
		BigBlind:   st.Blinds.Big,
		Button:     st.Button,
		Timestamp:  time.Now().UTC(),
	}
}

func (c *conductor) appendResolved(ctx context.Context, handNumber int, rec *HandRecord) error {
	winners := make([]map[string]any, 0, len(rec.Winners))
	for _, w := range rec.Winners {
		winners = append(winners, map[string]any{
			"seat":       w.Seat,
			"rank":       w.RankCategory,
			"amount_won": w.AmountWon,
		})
	}
	return c.appendEvent(ctx, "hand_resolved", handNumber, map[string]any{
		"board":   rec.Board,
		"winners": winners,
	})
}

func (c *conductor) appendEvent(ctx context.Context, typ string, handNumber int, data map[string]any) error {
	if c.recorder == nil {
		return nil
	}
	return c.recorder.Append(ctx, typ, handNumber, data)
}
