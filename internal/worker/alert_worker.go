package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// AlertWorker turns consumed budget alert messages into notification
// log lines. It is the delivery end of the publish-after-write flow on
// the API side.
type AlertWorker struct{}

func NewAlertWorker() *AlertWorker {
	return &AlertWorker{}
}

// HandleAlert processes a single alert message from AMQP
func (w *AlertWorker) HandleAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg.User == "" {
		return fmt.Errorf("alert message without user")
	}

	switch msg.Kind {
	case string(core.AlertBudgetExceeded):
		slog.InfoContext(ctx, "Budget exceeded",
			"user", msg.User,
			"category", msg.Category,
			"spent", core.Money{Cents: msg.SpentCents}.String(),
			"limit", core.Money{Cents: msg.LimitCents}.String(),
			"timestamp", msg.Timestamp)
	case string(core.AlertFundsExceeded):
		slog.InfoContext(ctx, "Funds exceeded",
			"user", msg.User,
			"spent", core.Money{Cents: msg.SpentCents}.String(),
			"funds", core.Money{Cents: msg.LimitCents}.String(),
			"timestamp", msg.Timestamp)
	default:
		return fmt.Errorf("unknown alert kind %q", msg.Kind)
	}

	return nil
}
