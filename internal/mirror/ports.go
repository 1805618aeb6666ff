// Package mirror defines the outbound port for replicating transactions to
// an external spreadsheet.
package mirror

import (
	"context"

	"fintrack/internal/core"
)

// TransactionMirror replicates transaction state to an external sheet. The
// operations are idempotent so redelivered events are harmless.
type TransactionMirror interface {
	// Upsert writes the transaction row, replacing any existing row with
	// the same transaction ID.
	Upsert(ctx context.Context, tx core.Transaction) error

	// Remove deletes the row for a transaction. Removing a row that does
	// not exist is not an error.
	Remove(ctx context.Context, transactionID string) error
}
