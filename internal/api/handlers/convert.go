package handlers

import (
	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/api/models"
	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/store"
)

func toRunInfo(r store.Run) models.RunInfo {
	info := models.RunInfo{
		ID:        r.ID,
		Market:    r.Market,
		StartedAt: r.StartedAt,
		Days:      r.Days,
		Failed:    r.Failed,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		info.FinishedAt = &finished
	}
	return info
}

func toDayInfo(d store.Day) models.DayInfo {
	return models.DayInfo{
		Date:          d.Date.Format(dateLayout),
		Source:        d.Source,
		Status:        d.Status,
		Error:         d.Error,
		EligibleRows:  d.EligibleRows,
		DroppedGroups: d.DroppedGroups,
		DroppedRows:   d.DroppedRows,
		Transactions:  d.Transactions,
	}
}

func toOutcomes(rows []backtest.OutcomeRow) []models.Outcome {
	out := make([]models.Outcome, 0, len(rows))
	for _, r := range rows {
		tx := r.Transaction
		out = append(out, models.Outcome{
			Index:            r.Index,
			TransactionTime:  tx.TransactionTime,
			DeliveryStart:    tx.DeliveryStart,
			Instrument:       string(tx.Instrument),
			ExecutionPrice:   tx.ExecutionPrice,
			ExecutedVolume:   tx.ExecutedVolume,
			LeadTimeMinutes:  tx.LeadTime.Minutes(),
			SellingReference: r.SellingReference,
			PumpingReference: r.PumpingReference,
			SellingPossible:  r.Possible[model.Selling],
			PumpingPossible:  r.Possible[model.Pumping],
			SellingCode:      int(r.Code[model.Selling]),
			PumpingCode:      int(r.Code[model.Pumping]),
			SellingBinary:    r.Binary(model.Selling),
			PumpingBinary:    r.Binary(model.Pumping),
			APosterioriPrice: r.APosterioriPrice,
		})
	}
	return out
}

func toFlows(flows [2]analysis.FlowSummary) []models.FlowSummary {
	out := make([]models.FlowSummary, 0, len(flows))
	for _, dir := range []model.Direction{model.Selling, model.Pumping} {
		f := flows[dir]
		out = append(out, models.FlowSummary{
			Flow:                dir.Flow(),
			AvgPrice:            f.AvgPrice,
			MaxPrice:            f.MaxPrice,
			MatchedVolume:       f.MatchedVolume,
			AdditionalContracts: f.AdditionalContracts,
			RevenueMax:          f.RevenueMax,
			RevenueMin:          f.RevenueMin,
		})
	}
	return out
}

func toDaySummary(d analysis.RankedDay) models.DaySummary {
	return models.DaySummary{
		Rank:                d.Rank,
		Date:                d.Date.Format(dateLayout),
		Contracts:           d.Contracts,
		TotalVolume:         d.TotalVolume,
		AvgHistoricalPrice:  d.AvgHistoricalPrice,
		MaxHistoricalPrice:  d.MaxHistoricalPrice,
		AvgAPosterioriPrice: d.AvgAPosterioriPrice,
		AdditionalRevenue:   d.AdditionalRevenue(),
		Flows:               toFlows(d.Flows),
	}
}

func toRunTotals(t analysis.Totals) models.RunTotals {
	out := models.RunTotals{Days: t.Days, Contracts: t.Contracts}
	for _, dir := range []model.Direction{model.Selling, model.Pumping} {
		out.Flows = append(out.Flows, models.FlowSummary{
			Flow:                dir.Flow(),
			MatchedVolume:       t.MatchedVolume[dir],
			AdditionalContracts: t.AdditionalContracts[dir],
			RevenueMax:          t.RevenueMax[dir],
			RevenueMin:          t.RevenueMin[dir],
		})
	}
	return out
}

func toTotals(totals [2]backtest.DirectionTotals) []models.DirectionTotals {
	out := make([]models.DirectionTotals, 0, len(totals))
	for _, dir := range []model.Direction{model.Selling, model.Pumping} {
		t := totals[dir]
		out = append(out, models.DirectionTotals{
			Flow:          dir.Flow(),
			Eligible:      t.Eligible,
			Matched:       t.Matched,
			MatchedVolume: t.MatchedVolume,
			ByCode:        t.ByCode,
		})
	}
	return out
}
