package amqp

import (
	"encoding/json"
	"time"
)

// StateChangeMessage notifies an external consumer that a mutation was
// committed. It names the operation only; a consumer that wants the data
// reads the snapshot itself.
type StateChangeMessage struct {
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStateChangeMessage creates a message for the given operation.
func NewStateChangeMessage(op string) *StateChangeMessage {
	return &StateChangeMessage{
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateChangeMessageFromJSON creates a message from JSON bytes
func StateChangeMessageFromJSON(data []byte) (*StateChangeMessage, error) {
	var msg StateChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
