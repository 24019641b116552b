package backtest

import (
	"encoding/csv"
	"io"
	"strconv"

	"intraday-welfare/internal/data"
	"intraday-welfare/internal/model"
)

// OutcomeColumns is the header of an allocated transactions file.
var OutcomeColumns = append(append([]string{}, data.TransactionColumns...),
	"weekly_hydro_marginal_price_selling",
	"weekly_hydro_marginal_price_pumping",
	"possible_match_selling",
	"possible_match_pumping",
	"match_outcome_code_selling",
	"match_outcome_code_pumping",
	"match_binary_outcome_selling",
	"match_binary_outcome_pumping",
	"A posteriori Execution Price",
)

func WriteOutcomes(w io.Writer, rows []OutcomeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutcomeColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := data.TransactionRecord(r.Transaction)
		rec = append(rec,
			data.FormatFloat(r.SellingReference),
			data.FormatFloat(r.PumpingReference),
			fmtBool(r.Possible[model.Selling]),
			fmtBool(r.Possible[model.Pumping]),
			strconv.Itoa(int(r.Code[model.Selling])),
			strconv.Itoa(int(r.Code[model.Pumping])),
			strconv.Itoa(r.Binary(model.Selling)),
			strconv.Itoa(r.Binary(model.Pumping)),
			data.FormatFloat(r.APosterioriPrice),
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOutcomeCSV atomically writes an allocated transactions file.
func WriteOutcomeCSV(path string, rows []OutcomeRow) error {
	return data.WriteFileAtomic(path, func(w io.Writer) error { return WriteOutcomes(w, rows) })
}

func fmtBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
