package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/data"
	"intraday-welfare/internal/extract"
	"intraday-welfare/internal/logger"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pricing"
)

// Processor turns one DayInput into output files.
type Processor struct {
	Static *Static
	Engine *backtest.Engine

	Window extract.LeadTimeWindow
	Mode   extract.Mode

	OutDir string
	Prefix string

	Log *logger.Logger
}

type DayResult struct {
	Date   time.Time
	Source string

	Extraction extract.Report
	Reference  pricing.Reference
	Result     *backtest.Result
	Summary    analysis.DaySummary

	TransactionsPath string
	UpdatedPath      string
}

// ProcessDay extracts, allocates and writes one day. Either both output
// files are written or neither is.
func (p *Processor) ProcessDay(ctx context.Context, in DayInput) (*DayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &DayResult{Date: in.Date, Source: in.Source}

	txs, rep, err := p.transactions(in)
	if err != nil {
		return nil, err
	}
	res.Extraction = rep

	day, err := p.Allocate(in.Date, txs)
	if err != nil {
		return nil, err
	}
	res.Result = day
	res.Reference = day.Reference
	res.Summary = analysis.Summarize(in.Date, day.Rows)

	res.TransactionsPath, res.UpdatedPath = OutputPaths(p.OutDir, p.Prefix, in.Date)
	if err := data.WriteTransactionsCSV(res.TransactionsPath, txs); err != nil {
		return nil, fmt.Errorf("write transactions: %w", err)
	}
	if err := backtest.WriteOutcomeCSV(res.UpdatedPath, day.Rows); err != nil {
		os.Remove(res.TransactionsPath)
		return nil, fmt.Errorf("write updated transactions: %w", err)
	}

	if p.Log != nil {
		p.Log.Debug("day processed",
			logger.NewField("day", in.Date.Format("2006-01-02")),
			logger.NewField("transactions", len(txs)),
			logger.NewField("dropped_groups", rep.DroppedGroups),
			logger.NewField("matched_selling", day.Totals[model.Selling].Matched),
			logger.NewField("matched_pumping", day.Totals[model.Pumping].Matched),
		)
	}
	return res, nil
}

func (p *Processor) transactions(in DayInput) ([]model.Transaction, extract.Report, error) {
	switch in.Kind {
	case SourceTradeList:
		return in.Transactions, extract.Report{
			EligibleRows: 2 * len(in.Transactions),
			Transactions: len(in.Transactions),
		}, nil
	case SourceOrderBook:
		orders, err := data.ReadOrderBook(in.Source)
		if err != nil {
			return nil, extract.Report{}, err
		}
		eligible, unbounded := extract.FilterLeadTime(orders, p.Window)
		return extract.Extract(eligible, unbounded, p.Mode)
	default:
		return nil, extract.Report{}, fmt.Errorf("unknown source kind %q", in.Kind)
	}
}

// Allocate runs the engine for one delivery day on fresh ledgers. The
// reference price is resolved once, from the earliest transaction time.
func (p *Processor) Allocate(date time.Time, txs []model.Transaction) (*backtest.Result, error) {
	var ref pricing.Reference
	if len(txs) > 0 {
		first := txs[0].TransactionTime
		for _, tx := range txs[1:] {
			if tx.TransactionTime.Before(first) {
				first = tx.TransactionTime
			}
		}
		var err error
		if ref, err = p.Static.Resolver.Resolve(first); err != nil {
			return nil, err
		}
	}

	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	engine := p.Engine
	if engine == nil {
		engine = backtest.New()
	}
	return engine.Run(backtest.Day{
		Date:         from,
		Transactions: txs,
		Transfer:     p.Static.Transfer.Ledger(from, to),
		Ramp:         p.Static.Ramp.Ledger(from, to),
		Reference:    ref,
	})
}
