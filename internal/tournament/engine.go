package tournament

import "agent-arena/internal/game"

// Engine is the table state machine the conductor drives. *game.Table is the
// production implementation; tests may substitute their own.
//
// The read side is transition-gated: once a hand ends, reads fail with
// game.ErrHandOver. The conductor therefore captures everything it needs for
// the hand record while the hand is still live.
type Engine interface {
	Sit(seat int, id string, buyIn int64) error
	Stand(seat int) error
	Seated() []int
	InProgress() bool

	StartHand(button int, sb, bb int64) error
	ActingSeat() (int, error)
	LegalActions() (game.LegalActions, error)
	Apply(action game.ActionType, amount int64) error
	AdvanceStreet() error
	FinishShowdown() ([]game.SeatRank, error)

	Street() (game.Street, error)
	Community() ([]game.Card, error)
	Hole(seat int) ([]game.Card, error)
	SeatStack(seat int) (int64, error)
	SeatBet(seat int) (int64, error)
	InHandSeats() ([]int, error)
	Pots() ([]game.Pot, error)
}

var _ Engine = (*game.Table)(nil)
