package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"intraday-welfare/internal/api/models"
	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/logger"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pricing"

	"github.com/gin-gonic/gin"
)

// Allocator runs the allocation engine for one delivery day against the
// configured capacity tables and weekly prices.
type Allocator interface {
	Allocate(date time.Time, txs []model.Transaction) (*backtest.Result, error)
}

type AllocateHandler struct {
	alloc Allocator
	log   *logger.Logger
}

func NewAllocateHandler(a Allocator, log *logger.Logger) *AllocateHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AllocateHandler{alloc: a, log: log}
}

// Allocate handles POST /api/v1/allocate
func (h *AllocateHandler) Allocate(c *gin.Context) {
	var req models.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_DATE", "date must be in YYYY-MM-DD format")
		return
	}
	txs, err := toTransactions(req.Transactions)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_TRANSACTION", err.Error())
		return
	}

	res, err := h.alloc.Allocate(date, txs)
	if err != nil {
		var notFound *pricing.ReferenceNotFoundError
		if errors.As(err, &notFound) {
			abortWithError(c, http.StatusUnprocessableEntity, "REFERENCE_NOT_FOUND", err.Error())
			return
		}
		h.log.ErrorContext(c.Request.Context(), err, logger.NewField("date", req.Date))
		abortWithError(c, http.StatusInternalServerError, "ALLOCATION_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, models.AllocateResponse{
		Date:             req.Date,
		SellingReference: res.Reference.Selling,
		PumpingReference: res.Reference.Pumping,
		Totals:           toTotals(res.Totals),
		Outcomes:         toOutcomes(res.Rows),
	})
}

func toTransactions(in []models.TransactionRequest) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(in))
	for i, r := range in {
		inst, err := model.ParseInstrument(r.Instrument)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		out = append(out, model.Transaction{
			TransactionTime: r.TransactionTime.UTC(),
			DeliveryStart:   r.DeliveryStart.UTC(),
			Instrument:      inst,
			ExecutionPrice:  r.ExecutionPrice,
			ExecutedVolume:  r.ExecutedVolume,
			LeadTime:        r.DeliveryStart.Sub(r.TransactionTime),
			BuyRowID:        r.BuyRowID,
			SellRowID:       r.SellRowID,
		})
	}
	return out, nil
}
