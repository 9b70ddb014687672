// Package export renders a user's transactions as downloadable files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"finwise/internal/core"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no transactions to export")

// ContentType is the media type of WriteCSV output.
const ContentType = "text/csv"

var header = []string{"Date", "Category", "Description", "Amount"}

// Filename returns the attachment name for an export made at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("finwise_export_%s.csv", now.Format("20060102"))
}

// WriteCSV writes a header and one row per transaction, preserving order.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		row := []string{t.Date.String(), t.Category, t.Description, t.Amount.String()}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
