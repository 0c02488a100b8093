package amqp

import (
	"testing"
	"time"
)

func TestNewRolloverRefreshMessage(t *testing.T) {
	msg := NewRolloverRefreshMessage("u1", "2024-01-02")

	if msg.UserID != "u1" {
		t.Errorf("UserID = %v, want u1", msg.UserID)
	}
	if msg.FromDate != "2024-01-02" {
		t.Errorf("FromDate = %v, want 2024-01-02", msg.FromDate)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestRolloverRefreshMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &RolloverRefreshMessage{
		UserID:    "u1",
		FromDate:  "2024-01-01",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := RolloverRefreshMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("RolloverRefreshMessageFromJSON() error = %v", err)
	}

	if parsed.UserID != msg.UserID || parsed.FromDate != msg.FromDate {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestRolloverRefreshMessage_InvalidJSON(t *testing.T) {
	if _, err := RolloverRefreshMessageFromJSON([]byte(`{"user_id": 42}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
