package tournament

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agent-arena/internal/game"
)

var (
	ErrRunActive    = errors.New("run_active")
	ErrNotResumable = errors.New("run_not_resumable")
	ErrBadConfig    = errors.New("invalid_config")
)

const (
	DefaultRaiseCap       = 2
	DefaultRationaleLimit = 2000
)

type BlindLevel struct {
	Small int64 `json:"small"`
	Big   int64 `json:"big"`
	Hands int   `json:"hands"`
}

// ParseBlindSchedule reads a compact schedule like "10/20x10,20/40x10":
// comma-separated levels, each small/big with an optional xN hand count
// (default 10).
func ParseBlindSchedule(s string) ([]BlindLevel, error) {
	var levels []BlindLevel
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lvl := BlindLevel{Hands: 10}
		blinds := part
		if i := strings.IndexByte(part, 'x'); i >= 0 {
			blinds = part[:i]
			hands, err := strconv.Atoi(part[i+1:])
			if err != nil {
				return nil, fmt.Errorf("%w: bad hand count in level %q", ErrBadConfig, part)
			}
			lvl.Hands = hands
		}
		small, big, ok := strings.Cut(blinds, "/")
		if !ok {
			return nil, fmt.Errorf("%w: blind level %q is not small/big", ErrBadConfig, part)
		}
		var err error
		if lvl.Small, err = strconv.ParseInt(small, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: bad small blind in level %q", ErrBadConfig, part)
		}
		if lvl.Big, err = strconv.ParseInt(big, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: bad big blind in level %q", ErrBadConfig, part)
		}
		levels = append(levels, lvl)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: empty blind schedule", ErrBadConfig)
	}
	return levels, nil
}

type SeatConfig struct {
	Seat    int    `json:"seat"`
	AgentID string `json:"agent_id"`
}

// Config is immutable for the lifetime of a run.
type Config struct {
	StartingStack  int64        `json:"starting_stack"`
	Levels         []BlindLevel `json:"levels"`
	Seats          []SeatConfig `json:"seats"`
	RaiseCap       int          `json:"raise_cap,omitempty"`
	RationaleLimit int          `json:"rationale_limit,omitempty"`
}

func (c *Config) Validate() error {
	if c.StartingStack <= 0 {
		return fmt.Errorf("%w: starting stack must be positive", ErrBadConfig)
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("%w: at least one blind level required", ErrBadConfig)
	}
	for i, lvl := range c.Levels {
		if lvl.Small <= 0 || lvl.Big <= 0 || lvl.Hands <= 0 {
			return fmt.Errorf("%w: blind level %d must have positive small/big/hands", ErrBadConfig, i)
		}
	}
	if len(c.Seats) < 2 || len(c.Seats) > game.MaxSeats {
		return fmt.Errorf("%w: seat count must be 2-%d, got %d", ErrBadConfig, game.MaxSeats, len(c.Seats))
	}
	seen := map[int]bool{}
	for _, s := range c.Seats {
		if s.Seat < 0 || s.Seat >= game.MaxSeats {
			return fmt.Errorf("%w: seat index %d out of range", ErrBadConfig, s.Seat)
		}
		if seen[s.Seat] {
			return fmt.Errorf("%w: duplicate seat index %d", ErrBadConfig, s.Seat)
		}
		if s.AgentID == "" {
			return fmt.Errorf("%w: seat %d has empty agent id", ErrBadConfig, s.Seat)
		}
		seen[s.Seat] = true
	}
	return nil
}

func (c *Config) raiseCap() int {
	if c.RaiseCap > 0 {
		return c.RaiseCap
	}
	return DefaultRaiseCap
}

func (c *Config) rationaleLimit() int {
	if c.RationaleLimit > 0 {
		return c.RationaleLimit
	}
	return DefaultRationaleLimit
}

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Blinds advances monotonically through the configured levels and pins at the
// final one.
type Blinds struct {
	Level          int   `json:"level"`
	Small          int64 `json:"small"`
	Big            int64 `json:"big"`
	HandsUntilNext int   `json:"hands_until_next"`
}

type SeatState struct {
	Seat       int    `json:"seat"`
	AgentID    string `json:"agent_id"`
	Stack      int64  `json:"stack"`
	Bet        int64  `json:"bet"`
	Eliminated bool   `json:"eliminated"`
	InHand     bool   `json:"in_hand"`
}

// State is the single durable source of truth for a run. Every mutation is
// persisted before the loop moves on.
type State struct {
	RunID          string      `json:"run_id"`
	Status         Status      `json:"status"`
	HandNumber     int         `json:"hand_number"`
	Seats          []SeatState `json:"seats"`
	Blinds         Blinds      `json:"blinds"`
	Button         int         `json:"button"`
	Winner         *int        `json:"winner,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	HandInProgress bool        `json:"hand_in_progress"`
	Config         Config      `json:"config"`
}

func (s *State) seat(idx int) *SeatState {
	for i := range s.Seats {
		if s.Seats[i].Seat == idx {
			return &s.Seats[i]
		}
	}
	return nil
}

// aliveSeats lists non-eliminated seats in ascending order.
func (s *State) aliveSeats() []SeatState {
	out := make([]SeatState, 0, len(s.Seats))
	for _, seat := range s.Seats {
		if !seat.Eliminated {
			out = append(out, seat)
		}
	}
	return out
}

type RunSummary struct {
	RunID      string     `json:"run_id"`
	Status     Status     `json:"status"`
	HandNumber int        `json:"hand_number"`
	Seats      int        `json:"seats"`
	Winner     *int       `json:"winner,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// --- hand records ---

type SeatResult struct {
	Seat          int      `json:"seat"`
	AgentID       string   `json:"agent_id"`
	StartingStack int64    `json:"starting_stack"`
	EndingStack   int64    `json:"ending_stack"`
	HoleCards     []string `json:"hole_cards"` // nil if folded before reveal
}

type ActionRecord struct {
	Seat      int    `json:"seat"`
	Action    string `json:"action"`
	Amount    int64  `json:"amount,omitempty"`
	Street    string `json:"street"`
	LatencyMS int64  `json:"latency_ms"`
}

type PotRecord struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"`
}

type WinnerRecord struct {
	Seat         int      `json:"seat"`
	RankCategory string   `json:"rank_category"`
	WinningCards []string `json:"winning_cards,omitempty"`
	AmountWon    int64    `json:"amount_won"`
}

// HandRecord is immutable once written; one record per hand number.
type HandRecord struct {
	HandNumber int            `json:"hand_number"`
	Seats      []SeatResult   `json:"seats"`
	Board      []string       `json:"board"`
	Actions    []ActionRecord `json:"actions"`
	Pots       []PotRecord    `json:"pots"`
	Winners    []WinnerRecord `json:"winners"`
	SmallBlind int64          `json:"small_blind"`
	BigBlind   int64          `json:"big_blind"`
	Button     int            `json:"button"`
	Timestamp  time.Time      `json:"timestamp"`
}

// FoldWinRank marks a fold-out win in a hand record; no ranking was computed.
const FoldWinRank = "fold_win"
