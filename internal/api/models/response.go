package models

import "time"

// RunInfo describes one batch run.
type RunInfo struct {
	ID         string     `json:"id"`
	Market     string     `json:"market"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Days       int        `json:"days"`
	Failed     int        `json:"failed"`
}

type RunsResponse struct {
	Runs []RunInfo `json:"runs"`
}

// DayInfo is the processing status of one delivery day.
type DayInfo struct {
	Date          string `json:"date"`
	Source        string `json:"source"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	EligibleRows  int    `json:"eligible_rows"`
	DroppedGroups int    `json:"dropped_groups"`
	DroppedRows   int    `json:"dropped_rows"`
	Transactions  int    `json:"transactions"`
}

type DaysResponse struct {
	RunID string    `json:"run_id"`
	Days  []DayInfo `json:"days"`
}

// Outcome is one allocated transaction.
type Outcome struct {
	Index           int       `json:"index"`
	TransactionTime time.Time `json:"transaction_time"`
	DeliveryStart   time.Time `json:"delivery_start"`
	Instrument      string    `json:"instrument"`
	ExecutionPrice  float64   `json:"execution_price"`
	ExecutedVolume  float64   `json:"executed_volume"`
	LeadTimeMinutes float64   `json:"lead_time_minutes"`

	SellingReference float64 `json:"selling_reference"`
	PumpingReference float64 `json:"pumping_reference"`
	SellingPossible  bool    `json:"selling_possible"`
	PumpingPossible  bool    `json:"pumping_possible"`
	SellingCode      int     `json:"selling_code"`
	PumpingCode      int     `json:"pumping_code"`
	SellingBinary    int     `json:"selling_binary"`
	PumpingBinary    int     `json:"pumping_binary"`

	APosterioriPrice float64 `json:"a_posteriori_price"`
}

type OutcomesResponse struct {
	RunID    string    `json:"run_id"`
	Date     string    `json:"date"`
	Outcomes []Outcome `json:"outcomes"`
}

// FlowSummary is one direction of a day summary.
type FlowSummary struct {
	Flow                string  `json:"flow"`
	AvgPrice            float64 `json:"avg_price"`
	MaxPrice            float64 `json:"max_price"`
	MatchedVolume       float64 `json:"matched_volume_mwh"`
	AdditionalContracts int     `json:"additional_contracts"`
	RevenueMax          float64 `json:"revenue_max"`
	RevenueMin          float64 `json:"revenue_min"`
}

// DaySummary is a ranked day of a run.
type DaySummary struct {
	Rank                int           `json:"rank"`
	Date                string        `json:"date"`
	Contracts           int           `json:"contracts"`
	TotalVolume         float64       `json:"total_volume_mwh"`
	AvgHistoricalPrice  float64       `json:"avg_historical_price"`
	MaxHistoricalPrice  float64       `json:"max_historical_price"`
	AvgAPosterioriPrice float64       `json:"avg_a_posteriori_price"`
	AdditionalRevenue   float64       `json:"additional_revenue"`
	Flows               []FlowSummary `json:"flows"`
}

// RunTotals aggregates a run's successful days. Flow prices are left zero.
type RunTotals struct {
	Days      int           `json:"days"`
	Contracts int           `json:"contracts"`
	Flows     []FlowSummary `json:"flows"`
}

type SummaryResponse struct {
	RunID string       `json:"run_id"`
	Days  []DaySummary `json:"days"`
	Total RunTotals    `json:"total"`
}

// DirectionTotals counts one direction's allocation pass.
type DirectionTotals struct {
	Flow          string  `json:"flow"`
	Eligible      int     `json:"eligible"`
	Matched       int     `json:"matched"`
	MatchedVolume float64 `json:"matched_volume_mwh"`
	ByCode        [5]int  `json:"by_code"`
}

// AllocateResponse is the result of POST /api/v1/allocate.
type AllocateResponse struct {
	Date             string            `json:"date"`
	SellingReference float64           `json:"selling_reference"`
	PumpingReference float64           `json:"pumping_reference"`
	Totals           []DirectionTotals `json:"totals"`
	Outcomes         []Outcome         `json:"outcomes"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
