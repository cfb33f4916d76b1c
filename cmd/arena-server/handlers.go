package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"agent-arena/internal/config"
	"agent-arena/internal/tournament"
)

func startRunHandler(manager *tournament.Manager, defaults config.TournamentConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg tournament.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := applyDefaults(&cfg, defaults); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_config")
			return
		}
		runID, err := manager.Start(r.Context(), cfg)
		switch {
		case errors.Is(err, tournament.ErrRunActive):
			writeHTTPError(w, http.StatusConflict, "run_active")
			return
		case errors.Is(err, tournament.ErrBadConfig):
			writeHTTPError(w, http.StatusBadRequest, "invalid_config")
			return
		case err != nil:
			log.Error().Err(err).Msg("start run failed")
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"run_id": runID})
	}
}

// applyDefaults fills config fields the request left out, so a start body can
// be as small as a seat list.
func applyDefaults(cfg *tournament.Config, defaults config.TournamentConfig) error {
	if cfg.StartingStack == 0 {
		cfg.StartingStack = defaults.StartingStack
	}
	if len(cfg.Levels) == 0 {
		levels, err := tournament.ParseBlindSchedule(defaults.BlindSchedule)
		if err != nil {
			return err
		}
		cfg.Levels = levels
	}
	if cfg.RaiseCap == 0 {
		cfg.RaiseCap = defaults.RaiseCap
	}
	if cfg.RationaleLimit == 0 {
		cfg.RationaleLimit = defaults.RationaleLimit
	}
	return nil
}

func resumeRunHandler(manager *tournament.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RunID string `json:"run_id"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeHTTPError(w, http.StatusBadRequest, "invalid_json")
				return
			}
		}
		runID, err := manager.Resume(r.Context(), body.RunID)
		switch {
		case errors.Is(err, tournament.ErrRunActive):
			writeHTTPError(w, http.StatusConflict, "run_active")
			return
		case errors.Is(err, tournament.ErrNotFound):
			writeHTTPError(w, http.StatusNotFound, "run_not_found")
			return
		case errors.Is(err, tournament.ErrNotResumable):
			writeHTTPError(w, http.StatusConflict, "run_not_resumable")
			return
		case err != nil:
			log.Error().Err(err).Msg("resume run failed")
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"run_id": runID})
	}
}

func listRunsHandler(st tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.ListRuns(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("list runs failed")
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	}
}

func getRunHandler(st tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "run_id")
		state, err := st.LoadState(r.Context(), runID)
		if errors.Is(err, tournament.ErrNotFound) {
			writeHTTPError(w, http.StatusNotFound, "run_not_found")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("load state failed")
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		hands, err := st.ListHands(r.Context(), runID)
		if err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("list hands failed")
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		summaries := make([]map[string]any, 0, len(hands))
		for _, h := range hands {
			summaries = append(summaries, map[string]any{
				"hand_number": h.HandNumber,
				"board":       h.Board,
				"winners":     h.Winners,
				"timestamp":   h.Timestamp,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": state, "hands": summaries})
	}
}

func getHandHandler(st tournament.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "run_id")
		handNo, err := strconv.Atoi(chi.URLParam(r, "hand_no"))
		if err != nil || handNo < 1 {
			writeHTTPError(w, http.StatusBadRequest, "invalid_hand_number")
			return
		}
		rec, err := st.GetHand(r.Context(), runID, handNo)
		if errors.Is(err, tournament.ErrNotFound) {
			writeHTTPError(w, http.StatusNotFound, "hand_not_found")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("run_id", runID).Int("hand_no", handNo).Msg("get hand failed")
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
