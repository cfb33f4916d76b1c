// Command dumb-agent is a scripted stand-in for a real model gateway. It
// serves the chat completions endpoint the arena server talks to and answers
// every decision request with a random but legal poker action, so full runs
// can be exercised locally without any LLM behind them.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type decisionContext struct {
	LegalActions []string `json:"legal_actions"`
	ToCall       int64    `json:"to_call"`
	MinRaiseTo   int64    `json:"min_raise_to"`
	MaxRaiseTo   int64    `json:"max_raise_to"`
}

type decision struct {
	Action    string `json:"action"`
	Amount    int64  `json:"amount,omitempty"`
	Reasoning string `json:"reasoning"`
}

func main() {
	addr := getenv("ADDR", ":4000")
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	http.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var dc decisionContext
		for _, m := range req.Messages {
			if m.Role == "user" {
				_ = json.Unmarshal([]byte(m.Content), &dc)
			}
		}

		d := decide(rnd, dc)
		content, _ := json.Marshal(d)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": string(content)}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	log.Printf("dumb-agent listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func decide(rnd *rand.Rand, dc decisionContext) decision {
	if dc.ToCall == 0 {
		// check or open for the minimum
		if rnd.Intn(2) == 0 || !has(dc.LegalActions, "bet") {
			return decision{Action: "check", Reasoning: "nothing to call"}
		}
		return decision{Action: "bet", Amount: dc.MinRaiseTo, Reasoning: "min open"}
	}
	switch rnd.Intn(3) {
	case 0:
		return decision{Action: "fold", Reasoning: "giving up"}
	case 1:
		return decision{Action: "call", Reasoning: fmt.Sprintf("calling %d", dc.ToCall)}
	default:
		if !has(dc.LegalActions, "raise") {
			return decision{Action: "call", Reasoning: "cannot raise"}
		}
		return decision{Action: "raise", Amount: dc.MinRaiseTo, Reasoning: "min raise"}
	}
}

func has(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
