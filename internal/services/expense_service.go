// Package services orchestrates domain operations across storage and the
// alert event channel.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AlertPublisher pushes advisory alert events out of process. Publishing
// is best-effort; the expense write has already committed when it runs.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// ExpenseService wraps the expense recorder: one atomic ledger+aggregate
// write, followed by advisory alert evaluation.
type ExpenseService struct {
	storage *storage.SQLiteRepository
	alerts  AlertPublisher
}

func NewExpenseService(storage *storage.SQLiteRepository, alerts AlertPublisher) *ExpenseService {
	return &ExpenseService{
		storage: storage,
		alerts:  alerts,
	}
}

// CreateExpense records the expense atomically and evaluates the two alert
// conditions on the fresh aggregates: category spend past a configured
// limit, and cumulative spend past wallet funds (only when funds are set).
// Alerts are returned to the caller and published; they are never stored.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (int64, []core.Alert, error) {
	if err := e.Validate(); err != nil {
		return 0, nil, err
	}

	id, err := s.storage.RecordExpense(ctx, e)
	if err != nil {
		return 0, nil, fmt.Errorf("record expense: %w", err)
	}

	alerts := s.evaluateAlerts(ctx, e.User, e.Category)
	for _, a := range alerts {
		s.publishAlert(ctx, e.User, a)
	}

	return id, alerts, nil
}

func (s *ExpenseService) evaluateAlerts(ctx context.Context, user, category string) []core.Alert {
	var alerts []core.Alert

	b, err := s.storage.BudgetFor(ctx, user, category)
	if err != nil {
		// The recorder just upserted this row; treat a miss as a read
		// hiccup and skip the advisory check rather than fail the write.
		slog.WarnContext(ctx, "Alert check skipped, budget read failed", "error", err, "category", category)
	} else if b.Limit.Cents > 0 && b.Spent.Cents > b.Limit.Cents {
		alerts = append(alerts, core.Alert{
			Kind:     core.AlertBudgetExceeded,
			Category: category,
			Spent:    b.Spent,
			Limit:    b.Limit,
		})
	}

	funds, err := s.storage.Wallet(ctx, user)
	if err != nil {
		slog.WarnContext(ctx, "Alert check skipped, wallet read failed", "error", err)
		return alerts
	}
	if funds <= 0 {
		return alerts
	}
	total, err := s.storage.TotalSpent(ctx, user)
	if err != nil {
		slog.WarnContext(ctx, "Alert check skipped, total spend read failed", "error", err)
		return alerts
	}
	if total > funds {
		alerts = append(alerts, core.Alert{
			Kind:  core.AlertFundsExceeded,
			Spent: core.Money{Cents: total},
			Limit: core.Money{Cents: funds},
		})
	}

	return alerts
}

func (s *ExpenseService) publishAlert(ctx context.Context, user string, a core.Alert) {
	if s.alerts == nil {
		return
	}
	msg := amqp.NewBudgetAlertMessage(user, string(a.Kind), a.Category, a.Spent.Cents, a.Limit.Cents)
	if err := s.alerts.PublishBudgetAlert(ctx, msg); err != nil {
		// Expense is committed; a lost advisory event is not a failure.
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"error", err,
			"user", user,
			"kind", a.Kind)
	}
}

func (s *ExpenseService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close expense service storage: %w", err)
		}
	}
	return nil
}
