package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/api/middleware"
	"intraday-welfare/internal/api/models"
	"intraday-welfare/internal/capacity"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pipeline"
	"intraday-welfare/internal/pricing"
	"intraday-welfare/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

var day = time.Date(2019, 9, 30, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func processor(t *testing.T) *pipeline.Processor {
	t.Helper()
	resolver, err := pricing.NewResolver([]model.WeeklyPrice{{
		Start:           time.Date(2019, 9, 29, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2019, 10, 6, 0, 0, 0, 0, time.UTC),
		AveragePrice:    40,
		MaxPumpingPrice: 28,
	}}, pricing.DefaultPumpingThreshold)
	require.NoError(t, err)
	transfer, err := capacity.NewTransferTable([]model.TransferRow{{Start: at(15, 0), End: at(15, 15), AToB: 50, BToA: 50}})
	require.NoError(t, err)
	ramp, err := capacity.NewRampTable([]model.RampRow{{Time: at(15, 0), Upscale: 100, Downscale: 100}})
	require.NoError(t, err)
	return &pipeline.Processor{Static: &pipeline.Static{Transfer: transfer, Ramp: ramp, Resolver: resolver}}
}

func transactions() []model.Transaction {
	return []model.Transaction{
		{TransactionTime: at(14, 15), DeliveryStart: at(15, 0), Instrument: model.InstrumentQuarterHour, ExecutionPrice: 60, ExecutedVolume: 7.5},
		{TransactionTime: at(14, 20), DeliveryStart: at(15, 0), Instrument: model.InstrumentQuarterHour, ExecutionPrice: 55, ExecutedVolume: 6.25},
	}
}

func seededStore(t *testing.T, p *pipeline.Processor) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	res, err := p.Allocate(day, transactions())
	require.NoError(t, err)
	sum := analysis.Summarize(day, res.Rows)

	require.NoError(t, st.SaveRun(ctx, store.Run{ID: "run-1", Market: "CH-DE", StartedAt: at(20, 0), FinishedAt: at(20, 1), Days: 2, Failed: 1}))
	require.NoError(t, st.SaveDay(ctx, store.Day{
		RunID: "run-1", Date: day, Source: "DE 20190930.csv", Status: store.StatusOK,
		EligibleRows: 4, Transactions: 2, Summary: &sum,
	}, res.Rows))
	require.NoError(t, st.SaveDay(ctx, store.Day{
		RunID: "run-1", Date: day.AddDate(0, 0, 1), Source: "DE 20191001.csv",
		Status: store.StatusFailed, Error: "bad row",
	}, nil))
	return st
}

func serve(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func newRouter(t *testing.T) *gin.Engine {
	p := processor(t)
	return NewRouter(Deps{Store: seededStore(t, p), Allocator: p})
}

func TestHealth(t *testing.T) {
	w := serve(t, newRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestListRunsAndDays(t *testing.T) {
	r := newRouter(t)

	w := serve(t, r, http.MethodGet, "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode[models.RunsResponse](t, w)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "run-1", runs.Runs[0].ID)
	assert.Equal(t, 1, runs.Runs[0].Failed)
	require.NotNil(t, runs.Runs[0].FinishedAt)

	w = serve(t, r, http.MethodGet, "/api/v1/runs/run-1/days", nil)
	require.Equal(t, http.StatusOK, w.Code)
	days := decode[models.DaysResponse](t, w)
	require.Len(t, days.Days, 2)
	assert.Equal(t, "2019-09-30", days.Days[0].Date)
	assert.Equal(t, store.StatusOK, days.Days[0].Status)
	assert.Equal(t, store.StatusFailed, days.Days[1].Status)
	assert.Equal(t, "bad row", days.Days[1].Error)
}

func TestUnknownRun(t *testing.T) {
	w := serve(t, newRouter(t), http.MethodGet, "/api/v1/runs/nope/days", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RUN_NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestOutcomes(t *testing.T) {
	r := newRouter(t)

	w := serve(t, r, http.MethodGet, "/api/v1/runs/run-1/days/2019-09-30/outcomes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[models.OutcomesResponse](t, w)
	require.Len(t, out.Outcomes, 2)
	assert.Equal(t, int(model.OutcomeMatched), out.Outcomes[0].SellingCode)
	assert.Equal(t, 1, out.Outcomes[0].SellingBinary)
	assert.Equal(t, int(model.OutcomeTransferShort), out.Outcomes[1].SellingCode)
	assert.Equal(t, 40.0, out.Outcomes[0].APosterioriPrice)

	w = serve(t, r, http.MethodGet, "/api/v1/runs/run-1/days/30-09-2019/outcomes", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummary(t *testing.T) {
	w := serve(t, newRouter(t), http.MethodGet, "/api/v1/runs/run-1/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[models.SummaryResponse](t, w)
	require.Len(t, sum.Days, 1)
	assert.Equal(t, 1, sum.Days[0].Rank)
	assert.Equal(t, 2, sum.Days[0].Contracts)
	assert.InDelta(t, 450.0, sum.Days[0].AdditionalRevenue, 1e-9)
	assert.Equal(t, 1, sum.Total.Days)
	require.Len(t, sum.Total.Flows, 2)
	assert.Equal(t, "CH-DE", sum.Total.Flows[0].Flow)
	assert.Equal(t, 1, sum.Total.Flows[0].AdditionalContracts)
}

func TestAllocate(t *testing.T) {
	r := newRouter(t)
	req := models.AllocateRequest{Date: "2019-09-30"}
	for _, tx := range transactions() {
		req.Transactions = append(req.Transactions, models.TransactionRequest{
			TransactionTime: tx.TransactionTime,
			DeliveryStart:   tx.DeliveryStart,
			Instrument:      string(tx.Instrument),
			ExecutionPrice:  tx.ExecutionPrice,
			ExecutedVolume:  tx.ExecutedVolume,
		})
	}

	w := serve(t, r, http.MethodPost, "/api/v1/allocate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.AllocateResponse](t, w)
	assert.Equal(t, 40.0, resp.SellingReference)
	assert.Equal(t, 28.0, resp.PumpingReference)
	require.Len(t, resp.Totals, 2)
	assert.Equal(t, 1, resp.Totals[0].Matched)
	assert.Equal(t, [5]int{0, 1, 1, 0, 0}, resp.Totals[0].ByCode)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, 45.0, resp.Outcomes[0].LeadTimeMinutes)
}

func TestAllocateRejectsBadInput(t *testing.T) {
	r := newRouter(t)
	tx := models.TransactionRequest{
		TransactionTime: at(14, 15), DeliveryStart: at(15, 0),
		Instrument: "Minute", ExecutionPrice: 60, ExecutedVolume: 1,
	}

	w := serve(t, r, http.MethodPost, "/api/v1/allocate", models.AllocateRequest{Date: "2019-09-30", Transactions: []models.TransactionRequest{tx}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TRANSACTION", decode[models.ErrorResponse](t, w).Error.Code)

	tx.Instrument = string(model.InstrumentHour)
	tx.TransactionTime = time.Date(2020, 1, 5, 14, 0, 0, 0, time.UTC)
	tx.DeliveryStart = time.Date(2020, 1, 5, 15, 0, 0, 0, time.UTC)
	w = serve(t, r, http.MethodPost, "/api/v1/allocate", models.AllocateRequest{Date: "2020-01-05", Transactions: []models.TransactionRequest{tx}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "REFERENCE_NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)

	w = serve(t, r, http.MethodPost, "/api/v1/allocate", map[string]any{"transactions": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/allocate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	newRouter(t).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutesWithoutStore(t *testing.T) {
	r := NewRouter(Deps{})
	assert.Equal(t, http.StatusOK, serve(t, r, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, r, http.MethodGet, "/api/v1/runs", nil).Code)
}
