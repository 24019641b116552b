package models

import "time"

// AllocateRequest is the body of POST /api/v1/allocate.
type AllocateRequest struct {
	Date         string               `json:"date" binding:"required"` // YYYY-MM-DD
	Transactions []TransactionRequest `json:"transactions" binding:"dive"`
}

// TransactionRequest is one already paired transaction.
type TransactionRequest struct {
	TransactionTime time.Time `json:"transaction_time" binding:"required"`
	DeliveryStart   time.Time `json:"delivery_start" binding:"required"`
	Instrument      string    `json:"instrument" binding:"required"` // "Quarter Hour", "Half Hour", "Hour"
	ExecutionPrice  float64   `json:"execution_price"`
	ExecutedVolume  float64   `json:"executed_volume" binding:"gt=0"`
	BuyRowID        int       `json:"buy_row_id,omitempty"`
	SellRowID       int       `json:"sell_row_id,omitempty"`
}

// ListRunsRequest holds the query of GET /api/v1/runs.
type ListRunsRequest struct {
	Limit int `form:"limit,omitempty"` // default: 20
}

// RankRequest holds the query of GET /api/v1/runs/:id/summary.
type RankRequest struct {
	Top int `form:"top,omitempty"` // 0 = all days
}
