package game

// MaxSeats is the table capacity. Seat indices are 0..MaxSeats-1 and stay
// stable for the lifetime of a table.
const MaxSeats = 10

type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionBet   ActionType = "bet"
	ActionRaise ActionType = "raise"
)

type Street string

const (
	StreetPreFlop Street = "preflop"
	StreetFlop    Street = "flop"
	StreetTurn    Street = "turn"
	StreetRiver   Street = "river"
)

func nextStreet(s Street) Street {
	switch s {
	case StreetPreFlop:
		return StreetFlop
	case StreetFlop:
		return StreetTurn
	case StreetTurn:
		return StreetRiver
	}
	return StreetRiver
}

type player struct {
	id     string
	stack  int64
	hole   []Card
	folded bool
	allIn  bool
	inHand bool
}

// LegalActions is the answer to a legal-action query for the acting seat.
// MinAmount/MaxAmount bound the chip amount of a bet or raise; MaxAmount is
// the all-in ceiling. For a raise both are "raise to" totals for the street.
type LegalActions struct {
	Actions   []ActionType
	MinAmount int64
	MaxAmount int64
}

func (la LegalActions) Allows(a ActionType) bool {
	for _, x := range la.Actions {
		if x == a {
			return true
		}
	}
	return false
}

// Pot is a contested chip amount and the seats eligible to win it.
type Pot struct {
	Amount   int64
	Eligible []int
}

// SeatRank is one seat's showdown result. Rank carries the full comparable
// ranking so callers can settle pots among subsets of seats themselves.
type SeatRank struct {
	Seat     int
	Category HandCategory
	BestFive []Card
	Rank     HandRank
}
