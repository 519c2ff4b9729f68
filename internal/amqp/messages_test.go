package amqp

import (
	"testing"
	"time"
)

func TestNewStateChangeMessage(t *testing.T) {
	msg := NewStateChangeMessage("add_transaction")

	if msg.Op != "add_transaction" {
		t.Errorf("NewStateChangeMessage() Op = %v, want add_transaction", msg.Op)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewStateChangeMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewStateChangeMessage() Timestamp should be recent")
	}
}

func TestStateChangeMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &StateChangeMessage{
		Op:        "import",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := StateChangeMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("StateChangeMessageFromJSON() error = %v", err)
	}

	if parsedMsg.Op != msg.Op {
		t.Errorf("Parsed Op = %v, want %v", parsedMsg.Op, msg.Op)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestStateChangeMessage_InvalidJSON(t *testing.T) {
	if _, err := StateChangeMessageFromJSON([]byte(`{"op": 42`)); err == nil {
		t.Error("StateChangeMessageFromJSON() should fail with invalid JSON")
	}
}
