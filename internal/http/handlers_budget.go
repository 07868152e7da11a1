package http

import (
	"net/http"

	"fintrack/internal/core"
)

type budgetItem struct {
	Category string     `json:"category"`
	Limit    core.Money `json:"limit"`
	Spent    core.Money `json:"spent"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	email := emailQuery(r.URL.Query())
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	budgets, err := s.store.ListBudgets(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]budgetItem, 0, len(budgets))
	for _, b := range budgets {
		items = append(items, budgetItem{Category: b.Category, Limit: b.Limit, Spent: b.Spent})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string     `json:"email"`
		Category string     `json:"category"`
		Limit    core.Money `json:"limit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := core.NormalizeEmail(req.Email)
	if email == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "email and category are required")
		return
	}
	if req.Limit.Cents <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be positive")
		return
	}

	if err := s.store.CreateBudget(r.Context(), email, req.Category, req.Limit.Cents); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) handleUpdateBudgetLimit(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")

	var req struct {
		Email string     `json:"email"`
		Limit core.Money `json:"limit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := core.NormalizeEmail(req.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Limit.Cents < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	// Zero affected rows means the pair does not exist; the caller checks
	// the count rather than receiving an error.
	affected, err := s.store.UpdateBudgetLimit(r.Context(), email, category, req.Limit.Cents)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "affected": affected})
}
