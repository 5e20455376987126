package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerChangedMessage announces that the persisted store moved to a new
// version. Consumers reload the store rather than applying the change.
type LedgerChangedMessage struct {
	Period    string    `json:"period,omitempty"`
	Operation string    `json:"operation"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a change message stamped with the current time.
// Period is empty for operations that touch the whole store.
func NewLedgerChangedMessage(period, operation string, version int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Period:    period,
		Operation: operation,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and rejects ones without an operation.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Operation == "" {
		return nil, errors.New("message has no operation")
	}
	return &msg, nil
}
