package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDays() []analysis.DaySummary {
	d := analysis.DaySummary{
		Date:               time.Date(2019, 9, 30, 0, 0, 0, 0, time.UTC),
		Contracts:          3,
		TotalVolume:        7.5,
		AvgHistoricalPrice: 48.2,
	}
	d.Flows[model.Selling].AdditionalContracts = 2
	d.Flows[model.Selling].MatchedVolume = 4.5
	d.Flows[model.Selling].RevenueMax = 270
	d.Flows[model.Selling].HourVolume[15] = 4.5
	d.HoursCount[15] = 3
	d.HoursMatchCount[15] = 2
	return []analysis.DaySummary{d}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleDays()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, SummaryColumns, recs[0])

	row := recs[1]
	assert.Equal(t, "2019-09-30", row[0])
	assert.Equal(t, "3", row[16])
	assert.Equal(t, "2", row[17])
	assert.Equal(t, "{15: 3}", row[19])
	assert.Equal(t, "{15: 2}", row[20])
	assert.Equal(t, "{15: 4.5}", row[21])
	assert.Equal(t, "{}", row[22])
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, sampleDays()))
	out := buf.String()
	assert.Contains(t, out, "2019-09-30")
	assert.Contains(t, out, "270")
	assert.True(t, strings.Contains(out, "1 days, 3 contracts"))
}

func TestRenderRankingLimits(t *testing.T) {
	days := sampleDays()
	second := days[0]
	second.Date = second.Date.AddDate(0, 0, 1)
	ranked := analysis.RankDays(append(days, second))

	var buf bytes.Buffer
	require.NoError(t, RenderRanking(&buf, ranked, 1))
	assert.Contains(t, buf.String(), "2019-09-30")
	assert.NotContains(t, buf.String(), "2019-10-01")
}
