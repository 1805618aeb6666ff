package events

import (
	"encoding/json"
	"time"
)

// Action describes what happened to a transaction.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// TransactionEvent is the message published after every transaction write.
// It carries only identifiers; the worker fetches the full record from the
// store, so a stale message never overwrites newer data.
type TransactionEvent struct {
	Action        Action    `json:"action"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(action Action, transactionID, userID string) *TransactionEvent {
	return &TransactionEvent{
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
