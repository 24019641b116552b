// Package store persists batch runs, per-day status and allocated rows in
// SQLite so they can be served by the API after the batch exits.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    market      TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT '',
    days        INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS days (
    run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    date           TEXT NOT NULL,
    source         TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL,
    error          TEXT NOT NULL DEFAULT '',
    eligible_rows  INTEGER NOT NULL DEFAULT 0,
    dropped_groups INTEGER NOT NULL DEFAULT 0,
    dropped_rows   INTEGER NOT NULL DEFAULT 0,
    transactions   INTEGER NOT NULL DEFAULT 0,
    summary        TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, date)
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id            TEXT NOT NULL,
    date              TEXT NOT NULL,
    idx               INTEGER NOT NULL,
    transaction_time  TEXT NOT NULL,
    delivery_start    TEXT NOT NULL,
    instrument        TEXT NOT NULL,
    execution_price   REAL NOT NULL,
    executed_volume   REAL NOT NULL,
    lead_time_minutes REAL NOT NULL,
    buy_row           INTEGER NOT NULL,
    sell_row          INTEGER NOT NULL,
    ref_selling       REAL NOT NULL,
    ref_pumping       REAL NOT NULL,
    possible_selling  INTEGER NOT NULL,
    possible_pumping  INTEGER NOT NULL,
    code_selling      INTEGER NOT NULL,
    code_pumping      INTEGER NOT NULL,
    a_posteriori      REAL NOT NULL,
    PRIMARY KEY (run_id, date, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var ErrNotFound = errors.New("not found")

type Run struct {
	ID         string
	Market     string
	StartedAt  time.Time
	FinishedAt time.Time
	Days       int
	Failed     int
}

// Day is the stored status of one processed day. Summary is nil for failed days.
type Day struct {
	RunID  string
	Date   time.Time
	Source string
	Status string
	Error  string

	EligibleRows  int
	DroppedGroups int
	DroppedRows   int
	Transactions  int

	Summary *analysis.DaySummary
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store.Open: open %q: %w", dsn, err)
	}
	// SQLite is single-writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) SaveRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, market, started_at, finished_at, days, failed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			market      = excluded.market,
			finished_at = excluded.finished_at,
			days        = excluded.days,
			failed      = excluded.failed`,
		r.ID, r.Market, fmtTime(r.StartedAt), fmtTime(r.FinishedAt), r.Days, r.Failed)
	if err != nil {
		return fmt.Errorf("store.SaveRun: %w", err)
	}
	return nil
}

// SaveDay records a day's status and replaces its outcome rows.
func (s *Store) SaveDay(ctx context.Context, d Day, rows []backtest.OutcomeRow) error {
	var summary string
	if d.Summary != nil {
		b, err := json.Marshal(d.Summary)
		if err != nil {
			return fmt.Errorf("store.SaveDay: encode summary: %w", err)
		}
		summary = string(b)
	}
	date := fmtDate(d.Date)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store.SaveDay: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO days (run_id, date, source, status, error, eligible_rows, dropped_groups, dropped_rows, transactions, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, date) DO UPDATE SET
			source         = excluded.source,
			status         = excluded.status,
			error          = excluded.error,
			eligible_rows  = excluded.eligible_rows,
			dropped_groups = excluded.dropped_groups,
			dropped_rows   = excluded.dropped_rows,
			transactions   = excluded.transactions,
			summary        = excluded.summary`,
		d.RunID, date, d.Source, d.Status, d.Error,
		d.EligibleRows, d.DroppedGroups, d.DroppedRows, d.Transactions, summary,
	); err != nil {
		return fmt.Errorf("store.SaveDay: upsert day: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id = ? AND date = ?`, d.RunID, date); err != nil {
		return fmt.Errorf("store.SaveDay: clear outcomes: %w", err)
	}
	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO outcomes
				(run_id, date, idx, transaction_time, delivery_start, instrument,
				 execution_price, executed_volume, lead_time_minutes, buy_row, sell_row,
				 ref_selling, ref_pumping, possible_selling, possible_pumping,
				 code_selling, code_pumping, a_posteriori)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store.SaveDay: prepare: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			t := r.Transaction
			if _, err := stmt.ExecContext(ctx,
				d.RunID, date, r.Index,
				fmtTime(t.TransactionTime), fmtTime(t.DeliveryStart), string(t.Instrument),
				t.ExecutionPrice, t.ExecutedVolume, t.LeadTime.Minutes(), t.BuyRowID, t.SellRowID,
				r.SellingReference, r.PumpingReference,
				boolInt(r.Possible[model.Selling]), boolInt(r.Possible[model.Pumping]),
				int(r.Code[model.Selling]), int(r.Code[model.Pumping]),
				r.APosterioriPrice,
			); err != nil {
				return fmt.Errorf("store.SaveDay: insert outcome %d: %w", r.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store.SaveDay: commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market, started_at, finished_at, days, failed
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store.ListRuns: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store.ListRuns: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, market, started_at, finished_at, days, failed
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("store.GetRun: run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store.GetRun: %w", err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	if err := sc.Scan(&r.ID, &r.Market, &started, &finished, &r.Days, &r.Failed); err != nil {
		return Run{}, err
	}
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	return r, nil
}

// ListDays returns a run's days in date order.
func (s *Store) ListDays(ctx context.Context, runID string) ([]Day, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, date, source, status, error, eligible_rows, dropped_groups, dropped_rows, transactions, summary
		FROM days WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, fmt.Errorf("store.ListDays: %w", err)
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		var (
			d             Day
			date, summary string
		)
		if err := rows.Scan(&d.RunID, &date, &d.Source, &d.Status, &d.Error,
			&d.EligibleRows, &d.DroppedGroups, &d.DroppedRows, &d.Transactions, &summary); err != nil {
			return nil, fmt.Errorf("store.ListDays: %w", err)
		}
		if d.Date, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
			return nil, fmt.Errorf("store.ListDays: %w", err)
		}
		if summary != "" {
			var sum analysis.DaySummary
			if err := json.Unmarshal([]byte(summary), &sum); err != nil {
				return nil, fmt.Errorf("store.ListDays: decode summary %s: %w", date, err)
			}
			d.Summary = &sum
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Summaries returns the summaries of a run's successful days in date order.
func (s *Store) Summaries(ctx context.Context, runID string) ([]analysis.DaySummary, error) {
	days, err := s.ListDays(ctx, runID)
	if err != nil {
		return nil, err
	}
	var out []analysis.DaySummary
	for _, d := range days {
		if d.Summary != nil {
			out = append(out, *d.Summary)
		}
	}
	return out, nil
}

// Outcomes returns a day's allocated rows in index order.
func (s *Store) Outcomes(ctx context.Context, runID string, date time.Time) ([]backtest.OutcomeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, transaction_time, delivery_start, instrument,
		       execution_price, executed_volume, lead_time_minutes, buy_row, sell_row,
		       ref_selling, ref_pumping, possible_selling, possible_pumping,
		       code_selling, code_pumping, a_posteriori
		FROM outcomes WHERE run_id = ? AND date = ? ORDER BY idx`, runID, fmtDate(date))
	if err != nil {
		return nil, fmt.Errorf("store.Outcomes: %w", err)
	}
	defer rows.Close()

	var out []backtest.OutcomeRow
	for rows.Next() {
		var (
			r                  backtest.OutcomeRow
			txTime, delivery   string
			instrument         string
			leadMinutes        float64
			possSell, possPump int
			codeSell, codePump int
		)
		t := &r.Transaction
		if err := rows.Scan(&r.Index, &txTime, &delivery, &instrument,
			&t.ExecutionPrice, &t.ExecutedVolume, &leadMinutes, &t.BuyRowID, &t.SellRowID,
			&r.SellingReference, &r.PumpingReference, &possSell, &possPump,
			&codeSell, &codePump, &r.APosterioriPrice); err != nil {
			return nil, fmt.Errorf("store.Outcomes: %w", err)
		}
		if t.TransactionTime, err = parseTime(txTime); err != nil {
			return nil, fmt.Errorf("store.Outcomes: %w", err)
		}
		if t.DeliveryStart, err = parseTime(delivery); err != nil {
			return nil, fmt.Errorf("store.Outcomes: %w", err)
		}
		t.Instrument = model.Instrument(instrument)
		t.LeadTime = time.Duration(leadMinutes * float64(time.Minute))
		r.Possible[model.Selling] = possSell != 0
		r.Possible[model.Pumping] = possPump != 0
		r.Code[model.Selling] = model.Outcome(codeSell)
		r.Code[model.Pumping] = model.Outcome(codePump)
		out = append(out, r)
	}
	return out, rows.Err()
}

const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
