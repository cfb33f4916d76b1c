package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/tournament"
)

var ssePingInterval = 15 * time.Second

// eventsHandler streams a run's event log: persisted entries after the
// client's Last-Event-ID first, then the live tail. Completed runs just get
// the replay and pings until the client disconnects.
func eventsHandler(st tournament.Store, manager *tournament.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "run_id")
		if _, err := st.LoadState(r.Context(), runID); err != nil {
			writeHTTPError(w, http.StatusNotFound, "run_not_found")
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		var afterSeq int64
		if v := r.Header.Get("Last-Event-ID"); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				afterSeq = parsed
			}
		}

		replay, err := st.ListEvents(r.Context(), runID, afterSeq)
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		for _, e := range replay {
			if err := eventlog.WriteSSE(w, e); err != nil {
				return
			}
			afterSeq = e.Seq
		}
		flusher.Flush()

		var ch chan eventlog.Entry
		if buf := manager.Buffer(runID); buf != nil {
			// Cover the gap between the store read and the subscription.
			for _, e := range buf.ReplayAfter(afterSeq) {
				if err := eventlog.WriteSSE(w, e); err != nil {
					return
				}
				afterSeq = e.Seq
			}
			flusher.Flush()
			ch = buf.Subscribe()
			defer buf.Unsubscribe(ch)
		}

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case e, ok := <-ch:
				if !ok {
					ch = nil
					continue
				}
				if e.Seq <= afterSeq {
					continue
				}
				if err := eventlog.WriteSSE(w, e); err != nil {
					return
				}
				afterSeq = e.Seq
				flusher.Flush()
			case <-ticker.C:
				if err := eventlog.WriteSSE(w, eventlog.Entry{
					RunID:    runID,
					Type:     "ping",
					ServerTS: time.Now().UnixMilli(),
				}); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
