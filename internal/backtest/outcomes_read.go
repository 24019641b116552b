package backtest

import (
	"fmt"
	"io"
	"strings"

	"intraday-welfare/internal/data"
	"intraday-welfare/internal/model"
)

func ReadOutcomeCSV(path string) ([]OutcomeRow, error) {
	f, err := data.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseOutcomes(f, path)
}

var directionSuffix = [2]string{model.Selling: "selling", model.Pumping: "pumping"}

// ParseOutcomes reads an allocated transactions file back into rows.
func ParseOutcomes(r io.Reader, name string) ([]OutcomeRow, error) {
	var rows []OutcomeRow
	err := data.ScanCSV(r, name, OutcomeColumns, func(rec data.Record) error {
		tx, err := data.TransactionFromRecord(rec)
		if err != nil {
			return err
		}
		row := OutcomeRow{Index: len(rows), Transaction: tx}
		if row.SellingReference, err = rec.Float("weekly_hydro_marginal_price_selling"); err != nil {
			return err
		}
		if row.PumpingReference, err = rec.Float("weekly_hydro_marginal_price_pumping"); err != nil {
			return err
		}
		for _, dir := range model.Directions {
			col := "possible_match_" + directionSuffix[dir]
			if row.Possible[dir], err = parseBool(rec.Get(col)); err != nil {
				return rec.Err(col, err)
			}
			col = "match_outcome_code_" + directionSuffix[dir]
			code, err := rec.Int(col)
			if err != nil {
				return err
			}
			if code < int(model.OutcomeIneligible) || code > int(model.OutcomeBothShort) {
				return rec.Err(col, fmt.Errorf("invalid outcome code %d", code))
			}
			row.Code[dir] = model.Outcome(code)
		}
		if row.APosterioriPrice, err = rec.Float("A posteriori Execution Price"); err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
