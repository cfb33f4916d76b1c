package tournament

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/game"
)

// PipelineResult is the engine-submittable outcome of one decision call. The
// pipeline never fails toward the conductor: agent errors become the
// deterministic fallback, illegal proposals are repaired.
type PipelineResult struct {
	Action    game.ActionType
	Amount    int64
	Rationale string
	Fallback  bool
	LatencyMS int64
}

type Pipeline struct {
	decider        Decider
	timeout        time.Duration
	rationaleLimit int
	recorder       *eventlog.Recorder
}

func NewPipeline(decider Decider, timeout time.Duration, rationaleLimit int, rec *eventlog.Recorder) *Pipeline {
	if rationaleLimit <= 0 {
		rationaleLimit = DefaultRationaleLimit
	}
	return &Pipeline{
		decider:        decider,
		timeout:        timeout,
		rationaleLimit: rationaleLimit,
		recorder:       rec,
	}
}

// Decide runs one action turn: agent call, repair, raise-cap override, log
// entry. The only error it returns is a failed log append, which the caller
// treats as a persistence failure.
func (p *Pipeline) Decide(ctx context.Context, dc DecisionContext, la game.LegalActions, raiseCapReached bool) (PipelineResult, error) {
	start := time.Now()
	raw, fallback := p.invoke(ctx, dc)
	latency := time.Since(start).Milliseconds()

	action, amount, notes := RepairDecision(raw, la)

	if raiseCapReached && (action == game.ActionBet || action == game.ActionRaise) {
		if la.Allows(game.ActionCall) {
			action = game.ActionCall
		} else {
			action = game.ActionCheck
		}
		amount = 0
		notes = append(notes, fmt.Sprintf("raise cap reached, downgraded to %s", action))
	}

	rationale := raw.Rationale
	if len(notes) > 0 {
		rationale = strings.TrimSpace(rationale + " [" + strings.Join(notes, "; ") + "]")
	}
	rationale = truncate(rationale, p.rationaleLimit)

	res := PipelineResult{
		Action:    action,
		Amount:    amount,
		Rationale: rationale,
		Fallback:  fallback,
		LatencyMS: latency,
	}

	log.Debug().
		Str("run_id", dc.RunID).
		Int("hand", dc.HandNumber).
		Int("seat", dc.Seat).
		Str("agent_id", dc.AgentID).
		Str("action", string(action)).
		Int64("amount", amount).
		Bool("fallback", fallback).
		Int64("latency_ms", latency).
		Msg("decision")

	if p.recorder != nil {
		toolCalls := make([]map[string]any, 0, len(raw.ToolCalls))
		for _, tc := range raw.ToolCalls {
			toolCalls = append(toolCalls, map[string]any{
				"name":      tc.Name,
				"arguments": tc.Arguments,
				"result":    tc.Result,
			})
		}
		err := p.recorder.Append(ctx, "decision", dc.HandNumber, map[string]any{
			"seat":       dc.Seat,
			"agent_id":   dc.AgentID,
			"street":     dc.Street,
			"pot":        dc.Pot,
			"to_call":    dc.ToCall,
			"action":     string(action),
			"amount":     amount,
			"rationale":  rationale,
			"fallback":   fallback,
			"latency_ms": latency,
			"tool_calls": toolCalls,
		})
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// invoke calls the agent under the pipeline timeout. Any failure produces the
// deterministic fallback: check when legal, fold otherwise.
func (p *Pipeline) invoke(ctx context.Context, dc DecisionContext) (Decision, bool) {
	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	d, err := p.decider.Decide(callCtx, dc)
	if err == nil {
		return d, false
	}
	log.Warn().
		Str("run_id", dc.RunID).
		Int("seat", dc.Seat).
		Err(err).
		Msg("agent call failed, using fallback")

	fb := Decision{Action: string(game.ActionFold)}
	for _, a := range dc.LegalActions {
		if a == string(game.ActionCheck) {
			fb.Action = a
			break
		}
	}
	fb.Rationale = fmt.Sprintf("[fallback: %v]", err)
	return fb, true
}

// RepairDecision turns any proposed decision into a legal one. It is total:
// it never rejects, it only substitutes or clamps, noting each alteration.
func RepairDecision(d Decision, la game.LegalActions) (game.ActionType, int64, []string) {
	var notes []string

	action := game.ActionType(strings.ToLower(strings.TrimSpace(d.Action)))
	amount := d.Amount

	if !la.Allows(action) {
		replacement := game.ActionFold
		if len(la.Actions) > 0 {
			replacement = la.Actions[0]
		}
		notes = append(notes, fmt.Sprintf("illegal action %q replaced with %s", d.Action, replacement))
		action = replacement
		amount = la.MinAmount
	}

	switch action {
	case game.ActionBet, game.ActionRaise:
		if amount <= 0 {
			notes = append(notes, fmt.Sprintf("missing amount defaulted to minimum %d", la.MinAmount))
			amount = la.MinAmount
		} else if amount < la.MinAmount {
			notes = append(notes, fmt.Sprintf("amount %d below minimum, raised to %d", amount, la.MinAmount))
			amount = la.MinAmount
		} else if amount > la.MaxAmount {
			notes = append(notes, fmt.Sprintf("amount %d above maximum, capped to %d", amount, la.MaxAmount))
			amount = la.MaxAmount
		}
	default:
		amount = 0
	}

	return action, amount, notes
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	// back up to a rune boundary
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
