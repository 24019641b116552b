package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"intraday-welfare/internal/model"
)

// TransactionColumns lead every per-day transaction file, extracted or allocated.
var TransactionColumns = []string{
	"End Validity Date",
	"Delivery Start",
	"Instrument Type",
	"Execution Price",
	"Executed Volume",
	"lead_time",
	"index_B",
	"index_S",
}

// TransactionRecord renders the leading columns of a transaction row.
// lead_time is written in minutes.
func TransactionRecord(tx model.Transaction) []string {
	return []string{
		FormatTime(tx.TransactionTime),
		FormatTime(tx.DeliveryStart),
		string(tx.Instrument),
		FormatFloat(tx.ExecutionPrice),
		FormatFloat(tx.ExecutedVolume),
		strconv.FormatFloat(tx.LeadTime.Minutes(), 'f', -1, 64),
		strconv.Itoa(tx.BuyRowID),
		strconv.Itoa(tx.SellRowID),
	}
}

func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionColumns); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := cw.Write(TransactionRecord(tx)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactionsCSV atomically writes a transactions file.
func WriteTransactionsCSV(path string, txs []model.Transaction) error {
	return WriteFileAtomic(path, func(w io.Writer) error { return WriteTransactions(w, txs) })
}

func ReadTransactionsCSV(path string) ([]model.Transaction, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTransactions(f, path)
}

// ParseTransactions reads the leading transaction columns of a per-day file.
// Extra columns are ignored, so allocated files parse too.
func ParseTransactions(r io.Reader, name string) ([]model.Transaction, error) {
	var out []model.Transaction
	err := ScanCSV(r, name, TransactionColumns, func(rec Record) error {
		tx, err := TransactionFromRecord(rec)
		if err != nil {
			return err
		}
		out = append(out, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionFromRecord decodes the TransactionColumns of rec.
func TransactionFromRecord(rec Record) (model.Transaction, error) {
	var (
		tx  model.Transaction
		err error
	)
	c := TransactionColumns
	if tx.TransactionTime, err = ParseTime(rec.Get(c[0])); err != nil {
		return tx, rec.Err(c[0], err)
	}
	if tx.DeliveryStart, err = ParseTime(rec.Get(c[1])); err != nil {
		return tx, rec.Err(c[1], err)
	}
	if tx.Instrument, err = model.ParseInstrument(rec.Get(c[2])); err != nil {
		return tx, rec.Err(c[2], err)
	}
	if tx.ExecutionPrice, err = rec.Float(c[3]); err != nil {
		return tx, err
	}
	if tx.ExecutedVolume, err = rec.Positive(c[4]); err != nil {
		return tx, err
	}
	minutes, err := rec.Float(c[5])
	if err != nil {
		return tx, err
	}
	tx.LeadTime = time.Duration(minutes * float64(time.Minute))
	if tx.BuyRowID, err = rec.Int(c[6]); err != nil {
		return tx, err
	}
	if tx.SellRowID, err = rec.Int(c[7]); err != nil {
		return tx, err
	}
	return tx, nil
}

// Output timestamps are RFC 3339 in UTC. Space separated timestamps are also
// accepted on read.
var readTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func ParseTime(s string) (time.Time, error) {
	for _, layout := range readTimeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func FormatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
