package querytools

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"agent-arena/internal/tournament"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_runs",
			mcp.WithDescription("List tournament runs, newest first"),
		),
		s.handleListRuns,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_run_state",
			mcp.WithDescription("Get the current state of a run"),
			mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
		),
		s.handleGetRunState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_hands",
			mcp.WithDescription("List hand summaries for a run"),
			mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
		),
		s.handleListHands,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_hand",
			mcp.WithDescription("Get the full record of one hand"),
			mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
			mcp.WithNumber("hand_number", mcp.Required(), mcp.Description("Hand number, starting at 1")),
		),
		s.handleGetHand,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_standings",
			mcp.WithDescription("Get current chip standings for a run, richest seat first"),
			mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
		),
		s.handleGetStandings,
	)
}

func (s *Server) handleListRuns(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.store.ListRuns(ctx)
	if err != nil {
		return mapStoreError(err), nil
	}
	return toolResult(map[string]any{"runs": runs}), nil
}

func (s *Server) handleGetRunState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	st, loadErr := s.store.LoadState(ctx, runID)
	if loadErr != nil {
		return mapStoreError(loadErr), nil
	}
	return toolResult(st), nil
}

func (s *Server) handleListHands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	hands, listErr := s.store.ListHands(ctx, runID)
	if listErr != nil {
		return mapStoreError(listErr), nil
	}
	summaries := make([]map[string]any, 0, len(hands))
	for _, h := range hands {
		summaries = append(summaries, handSummary(h))
	}
	return toolResult(map[string]any{"run_id": runID, "hands": summaries}), nil
}

func (s *Server) handleGetHand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	handNumber, err := request.RequireInt("hand_number")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	rec, getErr := s.store.GetHand(ctx, runID, handNumber)
	if getErr != nil {
		return mapStoreError(getErr), nil
	}
	return toolResult(rec), nil
}

func (s *Server) handleGetStandings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	st, loadErr := s.store.LoadState(ctx, runID)
	if loadErr != nil {
		return mapStoreError(loadErr), nil
	}

	standings := append([]tournament.SeatState(nil), st.Seats...)
	sort.SliceStable(standings, func(i, j int) bool { return standings[i].Stack > standings[j].Stack })
	return toolResult(map[string]any{
		"run_id":      runID,
		"hand_number": st.HandNumber,
		"status":      st.Status,
		"standings":   standings,
	}), nil
}

func handSummary(h tournament.HandRecord) map[string]any {
	winners := make([]map[string]any, 0, len(h.Winners))
	for _, w := range h.Winners {
		winners = append(winners, map[string]any{
			"seat":       w.Seat,
			"rank":       w.RankCategory,
			"amount_won": w.AmountWon,
		})
	}
	return map[string]any{
		"hand_number": h.HandNumber,
		"board":       h.Board,
		"winners":     winners,
		"small_blind": h.SmallBlind,
		"big_blind":   h.BigBlind,
		"button":      h.Button,
		"timestamp":   h.Timestamp,
	}
}
