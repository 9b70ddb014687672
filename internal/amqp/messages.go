package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finwise/internal/core"
)

// EventType doubles as the routing key on the direct exchange.
type EventType string

const (
	EventUserRegistered     EventType = "user.registered"
	EventUserLoggedIn       EventType = "user.logged_in"
	EventUserDeleted        EventType = "user.deleted"
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// EventTypes lists every routing key the queue is bound to.
var EventTypes = []EventType{
	EventUserRegistered,
	EventUserLoggedIn,
	EventUserDeleted,
	EventTransactionCreated,
	EventTransactionDeleted,
}

func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event is the JSON body of every published message. Transaction fields
// are only set for transaction events; descriptions are never published.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Category      string    `json:"category,omitempty"`
	Date          string    `json:"date,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewUserEvent builds an account-level event.
func NewUserEvent(t EventType, userID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// NewTransactionEvent builds an event describing tx.
func NewTransactionEvent(t EventType, tx core.Transaction) Event {
	e := NewUserEvent(t, tx.UserID)
	e.TransactionID = tx.ID
	e.AmountCents = tx.Amount.Cents
	e.Category = tx.Category
	if !tx.Date.IsZero() {
		e.Date = tx.Date.String()
	}
	return e
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and sanity-checks a message body.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if !e.Type.Valid() {
		return Event{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.UserID <= 0 {
		return Event{}, fmt.Errorf("event %s has no user", e.ID)
	}
	return e, nil
}
