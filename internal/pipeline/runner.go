package pipeline

import (
	"context"
	"time"

	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/logger"
	"intraday-welfare/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DayStatus is the outcome of one day in a run. Err is nil on success.
type DayStatus struct {
	Date   time.Time
	Source string
	Err    error
	Result *DayResult
}

type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Days       []DayStatus
}

func (r *Report) Failed() int {
	n := 0
	for _, d := range r.Days {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Runner processes days on a bounded worker pool. A failed day is recorded
// and never stops the others.
type Runner struct {
	Processor *Processor
	Workers   int
	Market    string

	// Store is optional.
	Store *store.Store
	Log   *logger.Logger
}

// Run processes days until all are done or ctx is cancelled. Days not started
// before cancellation are reported with the context error.
func (r *Runner) Run(ctx context.Context, days []DayInput) (*Report, error) {
	log := r.Log
	if log == nil {
		log = logger.Nop()
	}
	rep := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Days:      make([]DayStatus, len(days)),
	}
	log = log.WithFields(logger.NewField("run_id", rep.RunID))

	if r.Store != nil {
		if err := r.Store.SaveRun(ctx, store.Run{ID: rep.RunID, Market: r.Market, StartedAt: rep.StartedAt}); err != nil {
			return nil, err
		}
	}
	log.Info("run started", logger.NewField("days", len(days)), logger.NewField("workers", r.workers()))

	var g errgroup.Group
	g.SetLimit(r.workers())
	for i, in := range days {
		rep.Days[i] = DayStatus{Date: in.Date, Source: in.Source}
		if err := ctx.Err(); err != nil {
			rep.Days[i].Err = err
			continue
		}
		g.Go(func() error {
			res, err := r.Processor.ProcessDay(ctx, in)
			rep.Days[i].Result = res
			rep.Days[i].Err = err

			day := in.Date.Format("2006-01-02")
			if err != nil {
				log.Error(err, logger.NewField("day", day), logger.NewField("source", in.Source))
			}
			if r.Store != nil {
				if serr := r.Store.SaveDay(context.WithoutCancel(ctx), storeDay(rep.RunID, in, res, err), rows(res)); serr != nil {
					log.Error(serr, logger.NewField("day", day))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	rep.FinishedAt = time.Now().UTC()
	if r.Store != nil {
		run := store.Run{
			ID:         rep.RunID,
			Market:     r.Market,
			StartedAt:  rep.StartedAt,
			FinishedAt: rep.FinishedAt,
			Days:       len(days),
			Failed:     rep.Failed(),
		}
		// the run row is finalised even after cancellation
		if err := r.Store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			return rep, err
		}
	}
	log.Info("run finished",
		logger.NewField("days", len(days)),
		logger.NewField("failed", rep.Failed()),
		logger.NewField("duration", rep.FinishedAt.Sub(rep.StartedAt).String()),
	)
	return rep, ctx.Err()
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return 1
	}
	return r.Workers
}

func storeDay(runID string, in DayInput, res *DayResult, err error) store.Day {
	d := store.Day{RunID: runID, Date: in.Date, Source: in.Source, Status: store.StatusOK}
	if err != nil {
		d.Status = store.StatusFailed
		d.Error = err.Error()
		return d
	}
	d.EligibleRows = res.Extraction.EligibleRows
	d.DroppedGroups = res.Extraction.DroppedGroups
	d.DroppedRows = res.Extraction.DroppedRows
	d.Transactions = res.Extraction.Transactions
	sum := res.Summary
	d.Summary = &sum
	return d
}

func rows(res *DayResult) []backtest.OutcomeRow {
	if res == nil || res.Result == nil {
		return nil
	}
	return res.Result.Rows
}
