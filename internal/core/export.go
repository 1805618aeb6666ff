package core

import (
	"strings"
	"time"
)

// ExportHeader is the fixed column set of the delimited export.
const ExportHeader = "ID,Date,Description,Category,Type,Amount,User ID,Created At"

// ExportCSV serializes transactions to delimited text: the fixed header row,
// then one row per transaction in input order, LF-separated with no trailing
// newline. Only the description is quoted (embedded quotes doubled); other
// fields are written raw, so a delimiter inside a category would corrupt the
// row. That limitation is kept deliberately to stay byte-compatible with the
// historical export format.
//
// An empty list yields header-only output; callers that produce downloads
// treat that case as "nothing to export" before invoking the encoder.
func ExportCSV(txs []Transaction) string {
	var b strings.Builder
	b.WriteString(ExportHeader)
	for _, t := range txs {
		b.WriteByte('\n')
		b.WriteString(t.ID)
		b.WriteByte(',')
		b.WriteString(t.Date.String())
		b.WriteByte(',')
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(t.Description, `"`, `""`))
		b.WriteByte('"')
		b.WriteByte(',')
		b.WriteString(t.Category)
		b.WriteByte(',')
		b.WriteString(string(t.Type))
		b.WriteByte(',')
		b.WriteString(t.Amount.DecimalString())
		b.WriteByte(',')
		b.WriteString(t.UserID)
		b.WriteByte(',')
		b.WriteString(t.CreatedAt.UTC().Format(time.RFC3339))
	}
	return b.String()
}

// ExportFilename builds the timestamped download name, e.g.
// "transactions-2024-07-26T10-30-00Z.csv". Colons and dots are replaced so
// the name is safe on every filesystem.
func ExportFilename(now time.Time) string {
	stamp := now.UTC().Format(time.RFC3339)
	stamp = strings.ReplaceAll(stamp, ":", "-")
	stamp = strings.ReplaceAll(stamp, ".", "-")
	return "transactions-" + stamp + ".csv"
}
