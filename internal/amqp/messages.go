package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event kinds published to the broker. The payload is intentionally
// thin: consumers re-read the referenced row from the database, so a lost or
// replayed message never corrupts anything.
const (
	EventPaymentRecorded = "payment.recorded"
	EventPlanCreated     = "plan.created"
	EventExpenseRecorded = "expense.recorded"
)

// LedgerEventMessage notifies consumers that a ledger row (or fee plan)
// exists. ID is the transaction id for payment/expense events and the
// student id for plan events.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind string, id int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
