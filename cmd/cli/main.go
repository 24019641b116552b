package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/config"
	"intraday-welfare/internal/data"
	"intraday-welfare/internal/extract"
	"intraday-welfare/internal/logger"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pipeline"
	"intraday-welfare/internal/report"
	"intraday-welfare/internal/store"
)

const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmdRun(os.Args[2:])
	case "derive":
		err = cmdDerive(os.Args[2:])
	case "allocate":
		err = cmdAllocate(os.Args[2:])
	case "summary":
		err = cmdSummary(os.Args[2:])
	case "rank":
		err = cmdRank(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run      --config config.yaml [--input dir] [--from 2019-01-01] [--to 2019-12-31]")
	fmt.Println("  cli derive   --in 'DE 20190930.csv' --out transactions.csv [--config config.yaml]")
	fmt.Println("  cli allocate --config config.yaml --in DE_20190930.csv --out updated.csv [--date 2019-09-30]")
	fmt.Println("  cli summary  --dir output [--out summary.csv]")
	fmt.Println("  cli rank     --dir output | --config config.yaml --run <id> [--n 10]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run extracts, allocates and writes Transactions/ and Updated Transactions/ per day")
	fmt.Println("  - outcome codes: 0 ineligible, 1 matched, 2 transfer short, 3 ramp short, 4 both short")
}

// loadConfig reads path, or falls back to defaults and env overrides when
// path is empty.
func loadConfig(path string) (*config.Config, *logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, nil, err
	}
	log, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	input := fs.String("input", "", "Order book / trade list root (default: market.order_book_dir)")
	fromStr := fs.String("from", "", "First delivery day, YYYY-MM-DD (optional)")
	toStr := fs.String("to", "", "Last delivery day, YYYY-MM-DD (optional)")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, log, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	if err := cfg.ValidateMarket(); err != nil {
		return err
	}
	from, err := parseDate(*fromStr)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseDate(*toStr)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	root := *input
	if root == "" {
		root = cfg.Market.OrderBookDir
	}
	if root == "" {
		return fmt.Errorf("--input or market.order_book_dir is required")
	}

	static, err := pipeline.LoadStatic(cfg.Market, cfg.Pricing.PumpingThreshold)
	if err != nil {
		return err
	}
	days, err := pipeline.Discover(root, cfg.LeadTimeWindow())
	if err != nil {
		return err
	}
	days = pipeline.FilterRange(days, from, to)
	if len(days) == 0 {
		return fmt.Errorf("no input days found under %s", root)
	}

	runner := &pipeline.Runner{
		Processor: &pipeline.Processor{
			Static: static,
			Engine: backtest.New(),
			Window: cfg.LeadTimeWindow(),
			Mode:   cfg.ExtractionMode(),
			OutDir: cfg.Output.Dir,
			Prefix: cfg.Output.MarketPrefix,
			Log:    log,
		},
		Workers: cfg.Workers,
		Market:  cfg.Market.Name,
		Log:     log,
	}
	if cfg.Storage.DSN != "" {
		st, err := store.Open(cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer st.Close()
		runner.Store = st
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rep, err := runner.Run(ctx, days)
	if rep == nil {
		return err
	}

	var sums []analysis.DaySummary
	for _, d := range rep.Days {
		if d.Err == nil && d.Result != nil {
			sums = append(sums, d.Result.Summary)
		}
	}
	if len(sums) > 0 {
		if rerr := report.RenderSummary(os.Stdout, sums); rerr != nil {
			return rerr
		}
	}
	for _, d := range rep.Days {
		if d.Err != nil {
			fmt.Printf("FAILED %s (%s): %v\n", d.Date.Format(dateLayout), d.Source, d.Err)
		}
	}
	fmt.Printf("run %s: %d days, %d failed\n", rep.RunID, len(rep.Days), rep.Failed())
	if err != nil {
		return err
	}
	if rep.Failed() > 0 {
		return fmt.Errorf("%d of %d days failed", rep.Failed(), len(rep.Days))
	}
	return nil
}

func cmdDerive(args []string) error {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	in := fs.String("in", "", "Order book CSV")
	out := fs.String("out", "", "Transactions CSV to write")
	mode := fs.String("mode", "", "Extraction mode: lenient or strict (default from config)")
	_ = fs.Parse(args)

	if *in == "" || *out == "" {
		return fmt.Errorf("--in and --out are required")
	}
	cfg, log, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	m := cfg.ExtractionMode()
	if *mode != "" {
		if m, err = extract.ParseMode(*mode); err != nil {
			return err
		}
	}

	orders, err := data.ReadOrderBook(*in)
	if err != nil {
		return err
	}
	eligible, unbounded := extract.FilterLeadTime(orders, cfg.LeadTimeWindow())
	txs, rep, err := extract.Extract(eligible, unbounded, m)
	if err != nil {
		return err
	}
	if err := data.WriteTransactionsCSV(*out, txs); err != nil {
		return err
	}

	log.Info("transactions derived",
		logger.NewField("eligible_rows", rep.EligibleRows),
		logger.NewField("unbounded", rep.Unbounded),
		logger.NewField("dropped_groups", rep.DroppedGroups),
		logger.NewField("dropped_rows", rep.DroppedRows),
	)
	fmt.Printf("Wrote %d transactions to %s\n", len(txs), *out)
	return nil
}

func cmdAllocate(args []string) error {
	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	in := fs.String("in", "", "Transactions CSV")
	out := fs.String("out", "", "Updated transactions CSV to write")
	dateStr := fs.String("date", "", "Delivery day, YYYY-MM-DD (default: from the file name)")
	_ = fs.Parse(args)

	if *cfgPath == "" || *in == "" || *out == "" {
		return fmt.Errorf("--config, --in and --out are required")
	}
	cfg, log, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	if err := cfg.ValidateMarket(); err != nil {
		return err
	}

	date, err := parseDate(*dateStr)
	if err != nil {
		return fmt.Errorf("--date: %w", err)
	}
	if date.IsZero() {
		if date, err = pipeline.DateFromName(*in); err != nil {
			return fmt.Errorf("%w; pass --date", err)
		}
	}

	txs, err := data.ReadTransactionsCSV(*in)
	if err != nil {
		return err
	}
	static, err := pipeline.LoadStatic(cfg.Market, cfg.Pricing.PumpingThreshold)
	if err != nil {
		return err
	}
	p := &pipeline.Processor{Static: static, Engine: backtest.New(), Log: log}
	res, err := p.Allocate(date, txs)
	if err != nil {
		return err
	}
	if err := backtest.WriteOutcomeCSV(*out, res.Rows); err != nil {
		return err
	}

	fmt.Printf("Wrote %d rows to %s\n", len(res.Rows), *out)
	fmt.Printf("Reference %s\n", res.Reference)
	for _, dir := range []model.Direction{model.Selling, model.Pumping} {
		t := res.Totals[dir]
		fmt.Printf("%s: eligible=%d matched=%d (%.2f MWh) codes=%v\n",
			dir.Flow(), t.Eligible, t.Matched, t.MatchedVolume, t.ByCode)
	}
	return nil
}

func cmdSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	dir := fs.String("dir", "output", "Processed output folder")
	out := fs.String("out", "", "Summary CSV to write (optional)")
	_ = fs.Parse(args)

	sums, err := pipeline.SummarizeDir(*dir)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		return fmt.Errorf("no processed days under %s", *dir)
	}
	if *out != "" {
		if err := report.WriteSummaryCSV(*out, sums); err != nil {
			return err
		}
		fmt.Printf("Wrote %d days to %s\n", len(sums), *out)
	}
	return report.RenderSummary(os.Stdout, sums)
}

func cmdRank(args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	dir := fs.String("dir", "", "Processed output folder")
	cfgPath := fs.String("config", "", "Path to YAML config, for --run")
	runID := fs.String("run", "", "Stored run id")
	n := fs.Int("n", 10, "Number of days to show (0=all)")
	_ = fs.Parse(args)

	var (
		sums []analysis.DaySummary
		err  error
	)
	switch {
	case *dir != "":
		sums, err = pipeline.SummarizeDir(*dir)
	case *runID != "":
		sums, err = storedSummaries(*cfgPath, *runID)
	default:
		return fmt.Errorf("--dir or --run is required")
	}
	if err != nil {
		return err
	}
	return report.RenderRanking(os.Stdout, analysis.RankDays(sums), *n)
}

func storedSummaries(cfgPath, runID string) ([]analysis.DaySummary, error) {
	cfg, _, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is not configured")
	}
	st, err := store.Open(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Summaries(context.Background(), runID)
}
