package tournament

import (
	"fmt"

	"agent-arena/internal/game"
)

// buildContext assembles the private decision view for the acting seat. All
// engine reads happen here, mid-hand, so the gated read surface never bites.
func buildContext(eng Engine, st *State, seat int, la game.LegalActions) (DecisionContext, error) {
	seatState := st.seat(seat)
	if seatState == nil {
		return DecisionContext{}, fmt.Errorf("seat %d not part of run %s", seat, st.RunID)
	}

	street, err := eng.Street()
	if err != nil {
		return DecisionContext{}, err
	}
	hole, err := eng.Hole(seat)
	if err != nil {
		return DecisionContext{}, err
	}
	community, err := eng.Community()
	if err != nil {
		return DecisionContext{}, err
	}
	pots, err := eng.Pots()
	if err != nil {
		return DecisionContext{}, err
	}
	inHand, err := eng.InHandSeats()
	if err != nil {
		return DecisionContext{}, err
	}
	stack, err := eng.SeatStack(seat)
	if err != nil {
		return DecisionContext{}, err
	}
	ownBet, err := eng.SeatBet(seat)
	if err != nil {
		return DecisionContext{}, err
	}

	contested := map[int]bool{}
	for _, s := range inHand {
		contested[s] = true
	}

	var pot int64
	for _, p := range pots {
		pot += p.Amount
	}

	var currentBet int64
	views := make([]SeatView, 0, len(st.Seats))
	for _, ss := range st.Seats {
		view := SeatView{Seat: ss.Seat, AgentID: ss.AgentID, Eliminated: ss.Eliminated}
		if ss.Eliminated {
			views = append(views, view)
			continue
		}
		vStack, err := eng.SeatStack(ss.Seat)
		if err != nil {
			return DecisionContext{}, err
		}
		vBet, err := eng.SeatBet(ss.Seat)
		if err != nil {
			return DecisionContext{}, err
		}
		view.Stack = vStack
		view.Bet = vBet
		view.Folded = !contested[ss.Seat]
		view.AllIn = contested[ss.Seat] && vStack == 0
		if vBet > currentBet {
			currentBet = vBet
		}
		views = append(views, view)
	}

	toCall := currentBet - ownBet
	if toCall < 0 {
		toCall = 0
	}

	actions := make([]string, 0, len(la.Actions))
	for _, a := range la.Actions {
		actions = append(actions, string(a))
	}

	dc := DecisionContext{
		RunID:        st.RunID,
		HandNumber:   st.HandNumber,
		Seat:         seat,
		AgentID:      seatState.AgentID,
		HoleCards:    game.CardStrings(hole),
		Community:    game.CardStrings(community),
		Street:       string(street),
		Pot:          pot,
		Stack:        stack,
		CurrentBet:   currentBet,
		ToCall:       toCall,
		SmallBlind:   st.Blinds.Small,
		BigBlind:     st.Blinds.Big,
		Button:       st.Button,
		Position:     buttonOffset(st, seat),
		LegalActions: actions,
		MinRaiseTo:   la.MinAmount,
		MaxRaiseTo:   la.MaxAmount,
		Seats:        views,
	}
	return dc, nil
}

// buttonOffset counts clockwise steps from the button to seat over the
// non-eliminated seats. The button is position 0.
func buttonOffset(st *State, seat int) int {
	alive := st.aliveSeats()
	if len(alive) == 0 {
		return 0
	}
	order := make([]int, 0, len(alive))
	for _, s := range alive {
		order = append(order, s.Seat)
	}
	start := 0
	for i, s := range order {
		if s == st.Button {
			start = i
			break
		}
	}
	for off := 0; off < len(order); off++ {
		if order[(start+off)%len(order)] == seat {
			return off
		}
	}
	return 0
}
