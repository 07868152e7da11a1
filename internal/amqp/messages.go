package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage is the advisory event published after an expense write
// trips an alert condition. It mirrors the alert the API returns to the
// caller; consumers use it for out-of-band notification, nothing replays it
// into stored state.
type BudgetAlertMessage struct {
	User       string    `json:"user"`
	Kind       string    `json:"kind"`
	Category   string    `json:"category,omitempty"`
	SpentCents int64     `json:"spent_cents"`
	LimitCents int64     `json:"limit_cents"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(user, kind, category string, spentCents, limitCents int64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		User:       user,
		Kind:       kind,
		Category:   category,
		SpentCents: spentCents,
		LimitCents: limitCents,
		Timestamp:  time.Now(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
