// Package worker replays transaction mutation events against the external
// spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/mirror"
	"fintrack/internal/store"
)

// MirrorWorker consumes transaction events and applies them to the mirror.
// It always re-reads the transaction from the store, so an event arriving
// late or twice converges on current state instead of replaying stale data.
type MirrorWorker struct {
	transactions store.TransactionStore
	mirror       mirror.TransactionMirror
}

func NewMirrorWorker(transactions store.TransactionStore, m mirror.TransactionMirror) *MirrorWorker {
	return &MirrorWorker{
		transactions: transactions,
		mirror:       m,
	}
}

// HandleEvent processes a single transaction event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *events.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", event.Action,
		"transaction_id", event.TransactionID,
		"user_id", event.UserID)

	switch event.Action {
	case events.ActionCreated, events.ActionUpdated:
		return w.upsert(ctx, event)
	case events.ActionDeleted:
		if err := w.mirror.Remove(ctx, event.TransactionID); err != nil {
			return fmt.Errorf("remove mirrored row: %w", err)
		}
		return nil
	default:
		slog.WarnContext(ctx, "Unknown event action, dropping",
			"action", event.Action,
			"transaction_id", event.TransactionID)
		return nil
	}
}

func (w *MirrorWorker) upsert(ctx context.Context, event *events.TransactionEvent) error {
	tx, err := w.transactions.GetTransaction(ctx, event.UserID, event.TransactionID)
	if err != nil {
		// The transaction was deleted between the event and now; the
		// delete event that follows keeps the mirror consistent.
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before mirroring, skipping",
				"transaction_id", event.TransactionID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := w.mirror.Upsert(ctx, tx); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}
	return nil
}

// Run consumes events from the broker until the context is cancelled,
// reconnecting on broker failures.
func (w *MirrorWorker) Run(ctx context.Context, amqpURL, exchange, queue string) error {
	return events.ConsumeWithReconnect(ctx, amqpURL, exchange, queue, func(event *events.TransactionEvent) error {
		return w.HandleEvent(ctx, event)
	})
}

// Rebuild pushes every stored transaction for a user into the mirror. Used
// to backfill a fresh spreadsheet.
func (w *MirrorWorker) Rebuild(ctx context.Context, userID string) (int, error) {
	txs, err := w.transactions.ListTransactions(ctx, userID, core.TransactionFilter{})
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	for i, tx := range txs {
		if err := w.mirror.Upsert(ctx, tx); err != nil {
			return i, fmt.Errorf("mirror transaction %s: %w", tx.ID, err)
		}
	}
	return len(txs), nil
}
