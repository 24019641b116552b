package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"intraday-welfare/internal/extract"
	"intraday-welfare/internal/logger"
	"intraday-welfare/internal/pricing"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load market input paths from a separate YAML.
	// If both MarketFile and Market are provided, Market overrides MarketFile.
	MarketFile string       `yaml:"market_file"`
	Market     MarketConfig `yaml:"market"`

	LeadTime   LeadTimeConfig   `yaml:"lead_time"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Output     OutputConfig     `yaml:"output"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`

	Workers int `yaml:"workers"`
}

// MarketConfig points at the static yearly inputs of one border and plant.
type MarketConfig struct {
	Name             string `yaml:"name"`
	OrderBookDir     string `yaml:"order_book_dir"`
	WeeklyPricesFile string `yaml:"weekly_prices_file"`
	TransferFile     string `yaml:"transfer_file"`
	RampFile         string `yaml:"ramp_file"`
}

type LeadTimeConfig struct {
	MinMinutes int `yaml:"min_minutes"`
	MaxMinutes int `yaml:"max_minutes"`
}

type PricingConfig struct {
	PumpingThreshold float64 `yaml:"pumping_threshold"`
}

type ExtractionConfig struct {
	Mode string `yaml:"mode"`
}

type OutputConfig struct {
	Dir          string `yaml:"dir"`
	MarketPrefix string `yaml:"market_prefix"`
}

type StorageConfig struct {
	// DSN is a SQLite path or ":memory:". Empty disables persistence.
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Environment overrides, applied after the file is read.
const (
	EnvLogLevel   = "WELFARE_LOG_LEVEL"
	EnvLogFormat  = "WELFARE_LOG_FORMAT"
	EnvOutputDir  = "WELFARE_OUTPUT_DIR"
	EnvStorageDSN = "WELFARE_STORAGE_DSN"
	EnvWorkers    = "WELFARE_WORKERS"
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns a validated config with no market inputs, for commands that
// only need the extraction and pricing settings.
func Default() (*Config, error) {
	c := &Config{}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.MarketFile != "" {
		marketPath := resolve(filepath.Dir(path), c.MarketFile)
		loaded, err := loadMarketFile(marketPath)
		if err != nil {
			return nil, err
		}
		c.Market = MergeMarket(loaded, c.Market)
	}
	return &c, nil
}

// resolve prefers paths relative to dir but falls back to the path as given
// (relative to the working directory) when that does not exist.
func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(dir, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyEnv reads .env if present and overlays the WELFARE_* variables.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(EnvStorageDSN); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

func (c *Config) ApplyDefaults() {
	if c.LeadTime.MinMinutes == 0 && c.LeadTime.MaxMinutes == 0 {
		c.LeadTime = LeadTimeConfig{MinMinutes: 30, MaxMinutes: 60}
	}
	if c.Pricing.PumpingThreshold == 0 {
		c.Pricing.PumpingThreshold = pricing.DefaultPumpingThreshold
	}
	if c.Extraction.Mode == "" {
		c.Extraction.Mode = string(extract.ModeLenient)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.MarketPrefix == "" {
		c.Output.MarketPrefix = "DE"
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.LeadTime.MinMinutes < 0 || c.LeadTime.MaxMinutes < c.LeadTime.MinMinutes {
		return fmt.Errorf("lead_time: invalid window [%d, %d] minutes", c.LeadTime.MinMinutes, c.LeadTime.MaxMinutes)
	}
	if err := pricing.ValidateThreshold(c.Pricing.PumpingThreshold); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	if _, err := extract.ParseMode(c.Extraction.Mode); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// ValidateMarket checks the static inputs allocation needs are configured.
func (c *Config) ValidateMarket() error {
	required := []struct{ key, value string }{
		{"market.weekly_prices_file", c.Market.WeeklyPricesFile},
		{"market.transfer_file", c.Market.TransferFile},
		{"market.ramp_file", c.Market.RampFile},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}
	return nil
}

func (c *Config) LeadTimeWindow() extract.LeadTimeWindow {
	return extract.LeadTimeWindow{
		Min: time.Duration(c.LeadTime.MinMinutes) * time.Minute,
		Max: time.Duration(c.LeadTime.MaxMinutes) * time.Minute,
	}
}

// ExtractionMode is only valid after Validate.
func (c *Config) ExtractionMode() extract.Mode {
	m, _ := extract.ParseMode(c.Extraction.Mode)
	return m
}

// NewLogger builds the logger described by the log section.
func (c *Config) NewLogger() (*logger.Logger, error) {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseFormat(c.Log.Format)
	if err != nil {
		return nil, err
	}
	return logger.New(logger.WithLevel(level), logger.WithFormat(format))
}

type marketFileWrapper struct {
	Market MarketConfig `yaml:"market"`
}

// loadMarketFile reads a market file. Relative input paths inside it are
// resolved against the market file's directory.
func loadMarketFile(path string) (MarketConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MarketConfig{}, err
	}
	var w marketFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return MarketConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	m := w.Market
	m.OrderBookDir = resolve(dir, m.OrderBookDir)
	m.WeeklyPricesFile = resolve(dir, m.WeeklyPricesFile)
	m.TransferFile = resolve(dir, m.TransferFile)
	m.RampFile = resolve(dir, m.RampFile)
	return m, nil
}

// MergeMarket overlays non-empty fields from override onto base.
func MergeMarket(base, override MarketConfig) MarketConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.OrderBookDir != "" {
		out.OrderBookDir = override.OrderBookDir
	}
	if override.WeeklyPricesFile != "" {
		out.WeeklyPricesFile = override.WeeklyPricesFile
	}
	if override.TransferFile != "" {
		out.TransferFile = override.TransferFile
	}
	if override.RampFile != "" {
		out.RampFile = override.RampFile
	}
	return out
}
