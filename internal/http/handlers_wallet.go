package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	email := emailQuery(r.URL.Query())
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	// Absent wallets read as zero funds; no row is created.
	cents, err := s.store.Wallet(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]core.Money{"total_funds": {Cents: cents}})
}

func (s *Server) handleSetWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string      `json:"email"`
		TotalFunds *core.Money `json:"total_funds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := core.NormalizeEmail(req.Email)
	if email == "" || req.TotalFunds == nil {
		writeError(w, http.StatusBadRequest, "email and total_funds are required")
		return
	}

	if err := s.store.SetWallet(r.Context(), email, req.TotalFunds.Cents); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
