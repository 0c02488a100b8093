package amqp

import (
	"encoding/json"
	"time"
)

// RolloverRefreshMessage asks the worker to recompute a user's closed-day
// rollover balances. FromDate is the local day of the change that
// invalidated them (a newly posted or backdated transaction), in
// 2006-01-02 form; the worker recomputes from the budget start regardless,
// FromDate is carried for logging and diagnostics.
type RolloverRefreshMessage struct {
	UserID    string    `json:"user_id"`
	FromDate  string    `json:"from_date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRolloverRefreshMessage creates a refresh message for the given user.
func NewRolloverRefreshMessage(userID, fromDate string) *RolloverRefreshMessage {
	return &RolloverRefreshMessage{
		UserID:    userID,
		FromDate:  fromDate,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RolloverRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RolloverRefreshMessageFromJSON creates a message from JSON bytes
func RolloverRefreshMessageFromJSON(data []byte) (*RolloverRefreshMessage, error) {
	var msg RolloverRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
