package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agent-arena/internal/eventlog"
	"agent-arena/internal/tournament"
)

// Postgres persists runs as JSONB blobs: one row per run state, one per hand
// record, one per event log entry. Event sequence numbers are assigned per
// run by the insert.
type Postgres struct {
	Pool *pgxpool.Pool
}

var _ tournament.Store = (*Postgres)(nil)

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{Pool: pool}, nil
}

func (s *Postgres) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// EnsureSchema creates the tables on first boot. Idempotent.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	state      JSONB NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS hands (
	run_id  TEXT NOT NULL REFERENCES runs(run_id),
	hand_no INT  NOT NULL,
	record  JSONB NOT NULL,
	PRIMARY KEY (run_id, hand_no)
);
CREATE TABLE IF NOT EXISTS run_events (
	run_id    TEXT NOT NULL,
	seq       BIGINT NOT NULL,
	entry     JSONB NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`)
	return err
}

func (s *Postgres) SaveState(ctx context.Context, st *tournament.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO runs (run_id, status, state, started_at, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (run_id) DO UPDATE
SET status = EXCLUDED.status, state = EXCLUDED.state, updated_at = now()
`, st.RunID, string(st.Status), blob, st.StartedAt)
	return err
}

func (s *Postgres) LoadState(ctx context.Context, runID string) (*tournament.State, error) {
	var blob []byte
	err := s.Pool.QueryRow(ctx, `SELECT state FROM runs WHERE run_id = $1`, runID).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", tournament.ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	var st tournament.State
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Postgres) AppendHand(ctx context.Context, runID string, rec *tournament.HandRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO hands (run_id, hand_no, record)
VALUES ($1, $2, $3)
ON CONFLICT (run_id, hand_no) DO UPDATE SET record = EXCLUDED.record
`, runID, rec.HandNumber, blob)
	return err
}

func (s *Postgres) GetHand(ctx context.Context, runID string, handNumber int) (*tournament.HandRecord, error) {
	var blob []byte
	err := s.Pool.QueryRow(ctx, `SELECT record FROM hands WHERE run_id = $1 AND hand_no = $2`, runID, handNumber).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s hand %d", tournament.ErrNotFound, runID, handNumber)
	}
	if err != nil {
		return nil, err
	}
	var rec tournament.HandRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Postgres) ListHands(ctx context.Context, runID string) ([]tournament.HandRecord, error) {
	rows, err := s.Pool.Query(ctx, `SELECT record FROM hands WHERE run_id = $1 ORDER BY hand_no`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tournament.HandRecord
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rec tournament.HandRecord
		if err := json.Unmarshal(blob, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Postgres) ListRuns(ctx context.Context) ([]tournament.RunSummary, error) {
	rows, err := s.Pool.Query(ctx, `SELECT state, updated_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tournament.RunSummary
	for rows.Next() {
		var blob []byte
		var updated time.Time
		if err := rows.Scan(&blob, &updated); err != nil {
			return nil, err
		}
		var st tournament.State
		if err := json.Unmarshal(blob, &st); err != nil {
			return nil, err
		}
		out = append(out, summarize(&st, updated))
	}
	return out, rows.Err()
}

func (s *Postgres) LatestUnfinished(ctx context.Context) (string, error) {
	var runID string
	err := s.Pool.QueryRow(ctx, `
SELECT run_id FROM runs WHERE status = $1 ORDER BY started_at DESC LIMIT 1
`, string(tournament.StatusInProgress)).Scan(&runID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: no unfinished run", tournament.ErrNotFound)
	}
	return runID, err
}

func (s *Postgres) AppendEvent(ctx context.Context, runID string, e *eventlog.Entry) (int64, error) {
	// One writer per run, so max+1 followed by insert cannot race.
	var seq int64
	err := s.Pool.QueryRow(ctx, `
SELECT COALESCE(MAX(seq), 0) + 1 FROM run_events WHERE run_id = $1
`, runID).Scan(&seq)
	if err != nil {
		return 0, err
	}
	e.Seq = seq
	blob, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO run_events (run_id, seq, entry) VALUES ($1, $2, $3)
`, runID, seq, blob)
	return seq, err
}

func (s *Postgres) ListEvents(ctx context.Context, runID string, afterSeq int64) ([]eventlog.Entry, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT entry FROM run_events WHERE run_id = $1 AND seq > $2 ORDER BY seq
`, runID, afterSeq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []eventlog.Entry
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var e eventlog.Entry
		if err := json.Unmarshal(blob, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func summarize(st *tournament.State, updated time.Time) tournament.RunSummary {
	sum := tournament.RunSummary{
		RunID:      st.RunID,
		Status:     st.Status,
		HandNumber: st.HandNumber,
		Seats:      len(st.Seats),
		Winner:     st.Winner,
		StartedAt:  st.StartedAt,
	}
	if !updated.IsZero() {
		sum.UpdatedAt = &updated
	}
	return sum
}
