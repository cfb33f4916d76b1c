package game

import (
	"errors"
	"math/rand"
	"sort"
	"time"
)

var (
	ErrHandOver       = errors.New("hand_over")
	ErrHandInProgress = errors.New("hand_in_progress")
	ErrBadSeat        = errors.New("bad_seat")
	ErrSeatTaken      = errors.New("seat_taken")
	ErrSeatEmpty      = errors.New("seat_empty")
	ErrTooFewPlayers  = errors.New("too_few_players")
	ErrInvalidAction  = errors.New("invalid_action")
	ErrNoActor        = errors.New("no_actor")
	ErrBettingOpen    = errors.New("betting_round_open")
	ErrNotShowdown    = errors.New("not_at_showdown")
)

// Table is a multiway No-Limit Hold'em betting/showdown state machine.
//
// Its query surface is transition-gated: once a hand ends (the closing fold,
// or FinishShowdown) the per-hand state is torn down and every read that
// depends on it returns ErrHandOver. Callers that need post-hand facts must
// capture them while the hand is still live.
type Table struct {
	rnd   *rand.Rand
	seats [MaxSeats]*player

	deck      *Deck
	community []Card
	street    Street
	button    int

	smallBlind int64
	bigBlind   int64
	currentBet int64
	minRaise   int64
	roundBets  [MaxSeats]int64
	contrib    [MaxSeats]int64
	acted      [MaxSeats]bool
	actor      int
	inHand     bool
}

func NewTable() *Table {
	return &Table{
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		actor: -1,
	}
}

func (t *Table) Sit(seat int, id string, buyIn int64) error {
	if t.inHand {
		return ErrHandInProgress
	}
	if seat < 0 || seat >= MaxSeats {
		return ErrBadSeat
	}
	if t.seats[seat] != nil {
		return ErrSeatTaken
	}
	if buyIn < 0 {
		return ErrInvalidAction
	}
	t.seats[seat] = &player{id: id, stack: buyIn}
	return nil
}

func (t *Table) Stand(seat int) error {
	if t.inHand {
		return ErrHandInProgress
	}
	if seat < 0 || seat >= MaxSeats || t.seats[seat] == nil {
		return ErrSeatEmpty
	}
	t.seats[seat] = nil
	return nil
}

// Seated lists occupied seat indices. Readable between hands.
func (t *Table) Seated() []int {
	out := make([]int, 0, MaxSeats)
	for i, p := range t.seats {
		if p != nil {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) InProgress() bool { return t.inHand }

func (t *Table) RoundInProgress() bool { return t.inHand && t.actor != -1 }

// StartHand deals a new hand with the given button and blinds. Every seated
// player with chips is dealt in; blinds are short-posted when a stack cannot
// cover them.
func (t *Table) StartHand(button int, sb, bb int64) error {
	if t.inHand {
		return ErrHandInProgress
	}
	if sb <= 0 || bb <= 0 {
		return ErrInvalidAction
	}
	dealt := 0
	for _, p := range t.seats {
		if p == nil {
			continue
		}
		p.inHand = p.stack > 0
		p.folded = false
		p.allIn = false
		p.hole = nil
		if p.inHand {
			dealt++
		}
	}
	if dealt < 2 {
		return ErrTooFewPlayers
	}
	if button < 0 || button >= MaxSeats || t.seats[button] == nil || !t.seats[button].inHand {
		return ErrBadSeat
	}

	t.button = button
	t.smallBlind = sb
	t.bigBlind = bb
	t.community = nil
	t.street = StreetPreFlop
	t.currentBet = 0
	t.minRaise = bb
	t.roundBets = [MaxSeats]int64{}
	t.contrib = [MaxSeats]int64{}
	t.acted = [MaxSeats]bool{}

	t.deck = NewDeck()
	t.deck.Shuffle(t.rnd)
	for i := 0; i < MaxSeats; i++ {
		if p := t.seats[i]; p != nil && p.inHand {
			p.hole = []Card{t.deck.Deal(), t.deck.Deal()}
		}
	}

	// Heads-up the button posts the small blind; otherwise blinds are the two
	// seats after the button.
	sbSeat := t.nextDealt(button)
	bbSeat := t.nextDealt(sbSeat)
	if dealt == 2 {
		sbSeat = button
		bbSeat = t.nextDealt(button)
	}
	t.post(sbSeat, sb)
	t.post(bbSeat, bb)
	t.currentBet = bb

	t.inHand = true
	t.actor = t.nextActionable(bbSeat)
	if t.actor == -1 {
		t.refundUncalled()
	}
	return nil
}

func (t *Table) post(seat int, amount int64) {
	p := t.seats[seat]
	if amount > p.stack {
		amount = p.stack
	}
	p.stack -= amount
	t.roundBets[seat] += amount
	t.contrib[seat] += amount
	if p.stack == 0 {
		p.allIn = true
	}
}

func (t *Table) ActingSeat() (int, error) {
	if !t.inHand {
		return 0, ErrHandOver
	}
	if t.actor == -1 {
		return 0, ErrNoActor
	}
	return t.actor, nil
}

// LegalActions reports what the acting seat may do, with chip bounds for
// bet/raise. A raise amount is the street total to raise to; the maximum is
// always the all-in ceiling.
func (t *Table) LegalActions() (LegalActions, error) {
	seat, err := t.ActingSeat()
	if err != nil {
		return LegalActions{}, err
	}
	p := t.seats[seat]
	toCall := t.currentBet - t.roundBets[seat]
	if toCall < 0 {
		toCall = 0
	}

	la := LegalActions{Actions: []ActionType{ActionFold}}
	if toCall == 0 {
		la.Actions = append(la.Actions, ActionCheck)
		if p.stack > 0 {
			if t.currentBet == 0 {
				la.Actions = append(la.Actions, ActionBet)
				la.MinAmount = minInt64(t.minRaise, p.stack)
				la.MaxAmount = p.stack
			} else {
				la.Actions = append(la.Actions, ActionRaise)
				la.MinAmount = minInt64(t.currentBet+t.minRaise, t.roundBets[seat]+p.stack)
				la.MaxAmount = t.roundBets[seat] + p.stack
			}
		}
		return la, nil
	}

	la.Actions = append(la.Actions, ActionCall)
	if p.stack > toCall {
		la.Actions = append(la.Actions, ActionRaise)
		la.MinAmount = minInt64(t.currentBet+t.minRaise, t.roundBets[seat]+p.stack)
		la.MaxAmount = t.roundBets[seat] + p.stack
	}
	return la, nil
}

// Apply performs the acting seat's move. Amount is ignored for fold, check
// and call.
func (t *Table) Apply(action ActionType, amount int64) error {
	la, err := t.LegalActions()
	if err != nil {
		return err
	}
	if !la.Allows(action) {
		return ErrInvalidAction
	}
	if action == ActionBet || action == ActionRaise {
		if amount < la.MinAmount || amount > la.MaxAmount {
			return ErrInvalidAction
		}
	}
	seat := t.actor
	p := t.seats[seat]
	t.acted[seat] = true

	switch action {
	case ActionFold:
		p.folded = true
		if len(t.remaining()) == 1 {
			t.settleFoldOut()
			return nil
		}
	case ActionCheck:
		// no chips
	case ActionCall:
		need := t.currentBet - t.roundBets[seat]
		t.post(seat, need)
	case ActionBet:
		t.post(seat, amount)
		t.currentBet = t.roundBets[seat]
		t.minRaise = amount
	case ActionRaise:
		need := amount - t.roundBets[seat]
		increment := amount - t.currentBet
		t.post(seat, need)
		t.currentBet = amount
		if increment >= t.minRaise {
			t.minRaise = increment
		}
	}

	if t.roundClosed() {
		t.refundUncalled()
		t.actor = -1
	} else {
		t.actor = t.nextActionable(seat)
	}
	return nil
}

// AdvanceStreet deals the next street once the current betting round has
// closed. With no seat able to act (everyone all-in) the new round closes
// immediately.
func (t *Table) AdvanceStreet() error {
	if !t.inHand {
		return ErrHandOver
	}
	if t.actor != -1 {
		return ErrBettingOpen
	}
	if t.street == StreetRiver {
		return ErrNotShowdown
	}

	switch t.street {
	case StreetPreFlop:
		t.community = append(t.community, t.deck.Deal(), t.deck.Deal(), t.deck.Deal())
	default:
		t.community = append(t.community, t.deck.Deal())
	}
	t.street = nextStreet(t.street)
	t.roundBets = [MaxSeats]int64{}
	t.acted = [MaxSeats]bool{}
	t.currentBet = 0
	t.minRaise = t.bigBlind
	t.actor = t.nextActionable(t.button)
	if t.actor != -1 && t.roundClosed() {
		t.actor = -1
	}
	return nil
}

// FinishShowdown evaluates all remaining seats, pays out every pot, and ends
// the hand. The returned rankings are the only showdown data ever exposed:
// after this call the hand's state is gone and reads fail with ErrHandOver.
func (t *Table) FinishShowdown() ([]SeatRank, error) {
	if !t.inHand {
		return nil, ErrHandOver
	}
	if t.actor != -1 {
		return nil, ErrBettingOpen
	}
	if t.street != StreetRiver {
		return nil, ErrNotShowdown
	}

	remaining := t.remaining()
	ranksBySeat := make(map[int]HandRank, len(remaining))
	out := make([]SeatRank, 0, len(remaining))
	for _, seat := range remaining {
		r := BestHand(t.seats[seat].hole, t.community)
		ranksBySeat[seat] = r
		out = append(out, SeatRank{Seat: seat, Category: r.Category, BestFive: r.Cards, Rank: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })

	for _, pot := range buildPots(t.contribMap(), t.foldedMap()) {
		winners := BestOf(pot.Eligible, ranksBySeat)
		for seat, amount := range SplitPot(pot.Amount, winners) {
			t.seats[seat].stack += amount
		}
	}

	t.teardown()
	return out, nil
}

// BestOf picks the seats holding the strongest rank among eligible. Seats
// without a rank (folded before showdown) are skipped.
func BestOf(eligible []int, ranks map[int]HandRank) []int {
	winners := make([]int, 0, len(eligible))
	var best HandRank
	for _, seat := range eligible {
		r, ok := ranks[seat]
		if !ok {
			continue
		}
		if len(winners) == 0 || r.Compare(best) > 0 {
			best = r
			winners = winners[:0]
			winners = append(winners, seat)
		} else if r.Compare(best) == 0 {
			winners = append(winners, seat)
		}
	}
	return winners
}

func (t *Table) settleFoldOut() {
	winner := t.remaining()[0]
	total := int64(0)
	for i := 0; i < MaxSeats; i++ {
		total += t.contrib[i]
	}
	t.seats[winner].stack += total
	t.teardown()
}

func (t *Table) teardown() {
	for _, p := range t.seats {
		if p != nil {
			p.inHand = false
			p.hole = nil
		}
	}
	t.community = nil
	t.inHand = false
	t.actor = -1
}

// --- transition-gated reads ---

func (t *Table) Street() (Street, error) {
	if !t.inHand {
		return "", ErrHandOver
	}
	return t.street, nil
}

func (t *Table) Button() (int, error) {
	if !t.inHand {
		return 0, ErrHandOver
	}
	return t.button, nil
}

func (t *Table) Community() ([]Card, error) {
	if !t.inHand {
		return nil, ErrHandOver
	}
	return append([]Card(nil), t.community...), nil
}

func (t *Table) Hole(seat int) ([]Card, error) {
	if !t.inHand {
		return nil, ErrHandOver
	}
	p, err := t.seatAt(seat)
	if err != nil {
		return nil, err
	}
	if !p.inHand {
		return nil, ErrSeatEmpty
	}
	return append([]Card(nil), p.hole...), nil
}

func (t *Table) SeatStack(seat int) (int64, error) {
	if !t.inHand {
		return 0, ErrHandOver
	}
	p, err := t.seatAt(seat)
	if err != nil {
		return 0, err
	}
	return p.stack, nil
}

func (t *Table) SeatBet(seat int) (int64, error) {
	if !t.inHand {
		return 0, ErrHandOver
	}
	if _, err := t.seatAt(seat); err != nil {
		return 0, err
	}
	return t.roundBets[seat], nil
}

// InHandSeats lists the seats still contesting the hand.
func (t *Table) InHandSeats() ([]int, error) {
	if !t.inHand {
		return nil, ErrHandOver
	}
	return t.remaining(), nil
}

func (t *Table) Pots() ([]Pot, error) {
	if !t.inHand {
		return nil, ErrHandOver
	}
	return buildPots(t.contribMap(), t.foldedMap()), nil
}

// --- internals ---

func (t *Table) seatAt(seat int) (*player, error) {
	if seat < 0 || seat >= MaxSeats || t.seats[seat] == nil {
		return nil, ErrSeatEmpty
	}
	return t.seats[seat], nil
}

func (t *Table) remaining() []int {
	out := make([]int, 0, MaxSeats)
	for i, p := range t.seats {
		if p != nil && p.inHand && !p.folded {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) contribMap() map[int]int64 {
	out := make(map[int]int64, MaxSeats)
	for i := 0; i < MaxSeats; i++ {
		if t.contrib[i] > 0 {
			out[i] = t.contrib[i]
		}
	}
	return out
}

func (t *Table) foldedMap() map[int]bool {
	out := make(map[int]bool, MaxSeats)
	for i, p := range t.seats {
		if p != nil && p.inHand && p.folded {
			out[i] = true
		}
	}
	return out
}

// refundUncalled returns the portion of the round's top bet that no other
// seat matched. Runs when a betting round closes, so every surviving
// contribution level is matched by at least two seats and no pot can end up
// with chips nobody may win.
func (t *Table) refundUncalled() {
	top := -1
	var topBet, second int64
	for i := 0; i < MaxSeats; i++ {
		b := t.roundBets[i]
		if b > topBet {
			second = topBet
			topBet = b
			top = i
		} else if b > second {
			second = b
		}
	}
	if top == -1 || topBet == second {
		return
	}
	excess := topBet - second
	p := t.seats[top]
	p.stack += excess
	t.roundBets[top] -= excess
	t.contrib[top] -= excess
	if p.allIn && p.stack > 0 {
		p.allIn = false
	}
	if t.currentBet > second {
		t.currentBet = second
	}
}

func (t *Table) roundClosed() bool {
	for i, p := range t.seats {
		if p == nil || !p.inHand || p.folded || p.allIn {
			continue
		}
		if !t.acted[i] || t.roundBets[i] != t.currentBet {
			return false
		}
	}
	return true
}

// nextDealt finds the next dealt-in seat clockwise from seat (exclusive).
func (t *Table) nextDealt(seat int) int {
	for i := 1; i <= MaxSeats; i++ {
		idx := (seat + i) % MaxSeats
		if p := t.seats[idx]; p != nil && p.inHand {
			return idx
		}
	}
	return seat
}

// nextActionable finds the next seat that can still act this round, or -1.
func (t *Table) nextActionable(seat int) int {
	for i := 1; i <= MaxSeats; i++ {
		idx := (seat + i) % MaxSeats
		if p := t.seats[idx]; p != nil && p.inHand && !p.folded && !p.allIn {
			return idx
		}
	}
	return -1
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
