package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/tournament"
)

func streamEvents(t *testing.T, router http.Handler, path string, lastEventID string) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEventsUnknownRun(t *testing.T) {
	router, _ := newTestRouter(newMemoryStore(), "", foldDecider())
	w := getPath(router, "/api/public/runs/nope/events")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown run expected 404, got %d", w.Code)
	}
}

func TestEventsReplay(t *testing.T) {
	st := newMemoryStore()
	router, _ := newTestRouter(st, "", foldDecider())
	seedState(t, st, "run-1", tournament.StatusCompleted)

	ctx := context.Background()
	for _, typ := range []string{"run_started", "hand_started", "hand_resolved"} {
		if _, err := st.AppendEvent(ctx, "run-1", &eventlog.Entry{RunID: "run-1", Type: typ}); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	w := streamEvents(t, router, "/api/public/runs/run-1/events", "")
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"id: 1\n", "id: 3\n", "event: run_started\n", "event: hand_resolved\n"} {
		if !strings.Contains(body, want) {
			t.Fatalf("stream missing %q:\n%s", want, body)
		}
	}
}

func TestEventsResumeAfterLastEventID(t *testing.T) {
	st := newMemoryStore()
	router, _ := newTestRouter(st, "", foldDecider())
	seedState(t, st, "run-1", tournament.StatusCompleted)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := st.AppendEvent(ctx, "run-1", &eventlog.Entry{RunID: "run-1", Type: "decision"}); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	body := streamEvents(t, router, "/api/public/runs/run-1/events", "2").Body.String()
	if strings.Contains(body, "id: 1\n") || strings.Contains(body, "id: 2\n") {
		t.Fatalf("entries before Last-Event-ID replayed:\n%s", body)
	}
	if !strings.Contains(body, "id: 3\n") {
		t.Fatalf("entry after Last-Event-ID missing:\n%s", body)
	}
}
