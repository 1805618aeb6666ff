package log

import (
	"context"
)

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogTransactionMutation logs a successful write against a user's ledger
func (sl *StructuredLogger) LogTransactionMutation(ctx context.Context, op, userID, txID string, amountCents int64, category, txType string) {
	fields := NewFields().
		WithTransaction(txID, amountCents, category, txType).
		WithUser(userID).
		WithOperation(op).
		WithComponent(ComponentTransaction)

	sl.logger.InfoContext(ctx, "Transaction "+op+"d", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
