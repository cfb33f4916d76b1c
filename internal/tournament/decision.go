package tournament

import "context"

// Decision is an agent's answer for one action turn. Action and Amount may be
// anything at this point; the pipeline repairs them into a legal move before
// the engine ever sees them.
type Decision struct {
	Action    string     `json:"action"`
	Amount    int64      `json:"amount,omitempty"`
	Rationale string     `json:"rationale,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is one query tool invocation the agent reports having made while
// deciding. It goes into the decision log verbatim; the orchestrator does not
// verify or replay it.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
}

// SeatView is what one seat sees of another in a decision context. Hole cards
// are never included; only the seat's own holes appear on DecisionContext.
type SeatView struct {
	Seat       int    `json:"seat"`
	AgentID    string `json:"agent_id"`
	Stack      int64  `json:"stack"`
	Bet        int64  `json:"bet"`
	Folded     bool   `json:"folded"`
	AllIn      bool   `json:"all_in"`
	Eliminated bool   `json:"eliminated"`
}

// DecisionContext is the full, private view handed to one agent for one
// action turn.
type DecisionContext struct {
	RunID      string `json:"run_id"`
	HandNumber int    `json:"hand_number"`
	Seat       int    `json:"seat"`
	AgentID    string `json:"agent_id"`

	HoleCards []string `json:"hole_cards"`
	Community []string `json:"community"`
	Street    string   `json:"street"`

	Pot        int64 `json:"pot"`
	Stack      int64 `json:"stack"`
	CurrentBet int64 `json:"current_bet"`
	ToCall     int64 `json:"to_call"`

	SmallBlind int64 `json:"small_blind"`
	BigBlind   int64 `json:"big_blind"`
	Button     int   `json:"button"`

	// Position is the seat's clockwise offset from the button counting only
	// seats dealt into the hand; 0 is the button itself.
	Position int `json:"position"`

	LegalActions []string `json:"legal_actions"`
	MinRaiseTo   int64    `json:"min_raise_to,omitempty"`
	MaxRaiseTo   int64    `json:"max_raise_to,omitempty"`

	Seats []SeatView `json:"seats"`
}

// Decider produces a raw decision for a context. Implementations wrap an LLM
// gateway; the scripted deciders in tests implement it directly.
type Decider interface {
	Decide(ctx context.Context, dc DecisionContext) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, dc DecisionContext) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, dc DecisionContext) (Decision, error) {
	return f(ctx, dc)
}
