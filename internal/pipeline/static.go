// Package pipeline runs extraction, allocation and reporting over many
// delivery days.
package pipeline

import (
	"fmt"

	"intraday-welfare/internal/capacity"
	"intraday-welfare/internal/config"
	"intraday-welfare/internal/data"
	"intraday-welfare/internal/pricing"
)

// Static holds the yearly inputs shared read-only by every day.
type Static struct {
	Transfer *capacity.Table
	Ramp     *capacity.Table
	Resolver *pricing.Resolver
}

// LoadStatic reads the weekly prices, transfer capacity and ramp potential
// files named by the market config.
func LoadStatic(m config.MarketConfig, pumpingThreshold float64) (*Static, error) {
	weeks, err := data.ReadWeeklyPrices(m.WeeklyPricesFile)
	if err != nil {
		return nil, fmt.Errorf("pipeline.LoadStatic: weekly prices: %w", err)
	}
	resolver, err := pricing.NewResolver(weeks, pumpingThreshold)
	if err != nil {
		return nil, fmt.Errorf("pipeline.LoadStatic: %w", err)
	}

	transferRows, err := data.ReadTransferCapacity(m.TransferFile)
	if err != nil {
		return nil, fmt.Errorf("pipeline.LoadStatic: transfer capacity: %w", err)
	}
	transfer, err := capacity.NewTransferTable(transferRows)
	if err != nil {
		return nil, fmt.Errorf("pipeline.LoadStatic: %w", err)
	}

	rampRows, err := data.ReadRampPotential(m.RampFile)
	if err != nil {
		return nil, fmt.Errorf("pipeline.LoadStatic: ramp potential: %w", err)
	}
	ramp, err := capacity.NewRampTable(rampRows)
	if err != nil {
		return nil, fmt.Errorf("pipeline.LoadStatic: %w", err)
	}

	return &Static{Transfer: transfer, Ramp: ramp, Resolver: resolver}, nil
}
