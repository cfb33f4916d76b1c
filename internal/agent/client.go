package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"agent-arena/internal/config"
	"agent-arena/internal/tournament"
)

const maxResponseBodyBytes = 1 << 20

var (
	ErrRequestTimeout    = errors.New("agent request timeout")
	ErrGateway           = errors.New("agent gateway error")
	ErrMalformedResponse = errors.New("agent response malformed")
)

const systemPrompt = `You are a poker agent playing No-Limit Texas Hold'em in a multi-player tournament.
You receive the current decision context as JSON: your hole cards, the board, pot, stacks, blinds, position, and the legal actions with raise bounds.
Reply with a single JSON object and nothing else:
  {"action": "<fold|check|call|bet|raise>", "amount": <chips, only for bet/raise>, "reasoning": "<short rationale>"}
For a raise, "amount" is the street total you raise to. Choose only from the listed legal actions.
If you consulted any query tools while deciding, report them as
  "tool_calls": [{"name": "<tool>", "arguments": "<json>", "result": "<summary>"}]`

// Client asks an OpenAI-compatible chat completions gateway for decisions.
// The context's agent id selects the model, so each seat can run a different
// one behind the same gateway.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ tournament.Decider = (*Client)(nil)

func New(cfg config.AgentGatewayConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type decisionDTO struct {
	Action    string        `json:"action"`
	Amount    int64         `json:"amount,omitempty"`
	Reasoning string        `json:"reasoning,omitempty"`
	ToolCalls []toolCallDTO `json:"tool_calls,omitempty"`
}

type toolCallDTO struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
}

func (c *Client) Decide(ctx context.Context, dc tournament.DecisionContext) (tournament.Decision, error) {
	contextJSON, err := json.Marshal(dc)
	if err != nil {
		return tournament.Decision{}, fmt.Errorf("%w: marshal context: %v", ErrGateway, err)
	}

	model := c.model
	if dc.AgentID != "" {
		model = dc.AgentID
	}
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(contextJSON)},
		},
	})
	if err != nil {
		return tournament.Decision{}, fmt.Errorf("%w: marshal request: %v", ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return tournament.Decision{}, fmt.Errorf("%w: build request: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeoutError(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return tournament.Decision{}, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return tournament.Decision{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return tournament.Decision{}, fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(&chat); err != nil {
		return tournament.Decision{}, fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	if len(chat.Choices) == 0 {
		return tournament.Decision{}, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	dto, err := parseDecision(chat.Choices[0].Message.Content)
	if err != nil {
		return tournament.Decision{}, err
	}
	d := tournament.Decision{Action: dto.Action, Amount: dto.Amount, Rationale: dto.Reasoning}
	for _, tc := range dto.ToolCalls {
		d.ToolCalls = append(d.ToolCalls, tournament.ToolCall{
			Name:      tc.Name,
			Arguments: tc.Arguments,
			Result:    tc.Result,
		})
	}
	return d, nil
}

// parseDecision extracts the decision object from the model's reply,
// tolerating a fenced code block around the JSON.
func parseDecision(content string) (decisionDTO, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var dto decisionDTO
	if err := json.Unmarshal([]byte(text), &dto); err != nil {
		return decisionDTO{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dto.Action == "" {
		return decisionDTO{}, fmt.Errorf("%w: missing action", ErrMalformedResponse)
	}
	return dto, nil
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
