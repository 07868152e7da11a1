package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/storage"
)

type createExpenseRequest struct {
	Email       string     `json:"email"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
}

type alertResponse struct {
	Kind     string     `json:"kind"`
	Category string     `json:"category,omitempty"`
	Spent    core.Money `json:"spent"`
	Limit    core.Money `json:"limit"`
}

type expenseItem struct {
	ID          int64      `json:"id"`
	User        string     `json:"user_email"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	e := core.Expense{
		User:        core.NormalizeEmail(req.Email),
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	}

	id, alerts, err := s.expenses.CreateExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := struct {
		OK     bool            `json:"ok"`
		ID     int64           `json:"id"`
		Alerts []alertResponse `json:"alerts"`
	}{OK: true, ID: id, Alerts: []alertResponse{}}
	for _, a := range alerts {
		resp.Alerts = append(resp.Alerts, alertResponse{
			Kind:     string(a.Kind),
			Category: a.Category,
			Spent:    a.Spent,
			Limit:    a.Limit,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := emailQuery(q)
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	from, to, err := parseDateRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from/to must be YYYY-MM-DD")
		return
	}
	page, limit := parsePagination(q)

	filter := storage.ExpenseFilter{User: email, From: from, To: to}

	// Count and page slice are independent reads
	var (
		total int64
		items []core.Expense
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		total, err = s.store.CountExpenses(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.store.ListExpenses(gctx, filter, limit, (page-1)*limit)
		return err
	})
	if err := g.Wait(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := struct {
		Items []expenseItem `json:"items"`
		Total int64         `json:"total"`
		Page  int           `json:"page"`
		Limit int           `json:"limit"`
	}{Items: make([]expenseItem, 0, len(items)), Total: total, Page: page, Limit: limit}
	for _, e := range items {
		resp.Items = append(resp.Items, expenseItem{
			ID:          e.ID,
			User:        e.User,
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date.ISO(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := emailQuery(q)
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	from, to, err := parseDateRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from/to must be YYYY-MM-DD")
		return
	}
	format := export.ParseFormat(q.Get("format"))

	items, err := s.store.AllExpenses(r.Context(), storage.ExpenseFilter{User: email, From: from, To: to})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	doc, err := export.Render(format, items, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export rendering failed", "error", err, "format", format)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := export.Filename(format, from, to)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		slog.ErrorContext(r.Context(), "Export write failed", "error", err, "filename", filename)
	}
}
