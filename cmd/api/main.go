package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"intraday-welfare/internal/api"
	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/config"
	"intraday-welfare/internal/logger"
	"intraday-welfare/internal/pipeline"
	"intraday-welfare/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("API_CONFIG"), "Path to YAML config")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

func run(cfg *config.Config, log *logger.Logger) error {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := api.Deps{Log: log}
	if origins := os.Getenv("API_CORS_ORIGINS"); origins != "" {
		deps.CORSOrigins = strings.Split(origins, ",")
	}

	if cfg.Storage.DSN != "" {
		st, err := store.Open(cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer st.Close()
		deps.Store = st
		log.Info("store opened", logger.NewField("dsn", cfg.Storage.DSN))
	} else {
		log.Warn("storage.dsn not set, run routes disabled")
	}

	if err := cfg.ValidateMarket(); err == nil {
		static, err := pipeline.LoadStatic(cfg.Market, cfg.Pricing.PumpingThreshold)
		if err != nil {
			return err
		}
		deps.Allocator = &pipeline.Processor{
			Static: static,
			Engine: backtest.New(),
			Window: cfg.LeadTimeWindow(),
			Mode:   cfg.ExtractionMode(),
			Log:    log,
		}
		log.Info("static inputs loaded",
			logger.NewField("market", cfg.Market.Name),
			logger.NewField("transfer_slots", static.Transfer.Len()),
			logger.NewField("ramp_slots", static.Ramp.Len()),
		)
	} else {
		log.Warn("market inputs not configured, allocate route disabled", logger.NewField("reason", err.Error()))
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", logger.NewField("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
