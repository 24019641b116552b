package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/api/models"
	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/logger"
	"intraday-welfare/internal/store"

	"github.com/gin-gonic/gin"
)

const defaultRunsLimit = 20

// RunStore is the read side of the results store.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetRun(ctx context.Context, id string) (store.Run, error)
	ListDays(ctx context.Context, runID string) ([]store.Day, error)
	Summaries(ctx context.Context, runID string) ([]analysis.DaySummary, error)
	Outcomes(ctx context.Context, runID string, date time.Time) ([]backtest.OutcomeRow, error)
}

// RunHandler serves stored batch runs.
type RunHandler struct {
	store RunStore
	log   *logger.Logger
}

func NewRunHandler(s RunStore, log *logger.Logger) *RunHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RunHandler{store: s, log: log}
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	var req models.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	runs, err := h.store.ListRuns(c.Request.Context(), req.Limit)
	if err != nil {
		h.internal(c, err)
		return
	}
	resp := models.RunsResponse{Runs: make([]models.RunInfo, 0, len(runs))}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, toRunInfo(r))
	}
	c.JSON(http.StatusOK, resp)
}

// ListDays handles GET /api/v1/runs/:id/days
func (h *RunHandler) ListDays(c *gin.Context) {
	id, ok := h.run(c)
	if !ok {
		return
	}
	days, err := h.store.ListDays(c.Request.Context(), id)
	if err != nil {
		h.internal(c, err)
		return
	}
	resp := models.DaysResponse{RunID: id, Days: make([]models.DayInfo, 0, len(days))}
	for _, d := range days {
		resp.Days = append(resp.Days, toDayInfo(d))
	}
	c.JSON(http.StatusOK, resp)
}

// Outcomes handles GET /api/v1/runs/:id/days/:date/outcomes
func (h *RunHandler) Outcomes(c *gin.Context) {
	date, err := time.ParseInLocation(dateLayout, c.Param("date"), time.UTC)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_DATE", "date must be in YYYY-MM-DD format")
		return
	}
	id, ok := h.run(c)
	if !ok {
		return
	}
	rows, err := h.store.Outcomes(c.Request.Context(), id, date)
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OutcomesResponse{
		RunID:    id,
		Date:     date.Format(dateLayout),
		Outcomes: toOutcomes(rows),
	})
}

// Summary handles GET /api/v1/runs/:id/summary. Days are ranked by
// additional revenue.
func (h *RunHandler) Summary(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	id, ok := h.run(c)
	if !ok {
		return
	}
	sums, err := h.store.Summaries(c.Request.Context(), id)
	if err != nil {
		h.internal(c, err)
		return
	}

	ranked := analysis.RankDays(sums)
	if req.Top > 0 && req.Top < len(ranked) {
		ranked = ranked[:req.Top]
	}
	resp := models.SummaryResponse{
		RunID: id,
		Days:  make([]models.DaySummary, 0, len(ranked)),
		Total: toRunTotals(analysis.Aggregate(sums)),
	}
	for _, d := range ranked {
		resp.Days = append(resp.Days, toDaySummary(d))
	}
	c.JSON(http.StatusOK, resp)
}

// run checks the :id parameter names a stored run.
func (h *RunHandler) run(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := h.store.GetRun(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "RUN_NOT_FOUND", "run "+id+" not found")
			return "", false
		}
		h.internal(c, err)
		return "", false
	}
	return id, true
}

func (h *RunHandler) internal(c *gin.Context, err error) {
	h.log.ErrorContext(c.Request.Context(), err, logger.NewField("path", c.Request.URL.Path))
	abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read run data")
}
