package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open repository: %v", err)
	}
	svc := services.NewExpenseService(repo, nil)
	srv := NewServer(":0", svc, repo, filepath.Join(dir, "uploads"))
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		repo.Close()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func postExpense(t *testing.T, srv *Server, email, amount, category, date string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"email":       email,
		"amount":      json.RawMessage(amount),
		"category":    category,
		"description": "test " + category,
		"date":        date,
	})
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/db-health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from db-health, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAndListExpenses(t *testing.T) {
	srv := newTestServer(t)

	for _, day := range []string{"2024-01-10", "2024-01-12", "2024-01-11"} {
		rec := postExpense(t, srv, "anna@example.com", "10.00", "Food", day)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 creating expense, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	// Another user's rows must not leak into the listing
	postExpense(t, srv, "bruno@example.com", "99.00", "Travel", "2024-01-10")

	rec := doJSON(t, srv, http.MethodGet, "/api/expenses?email=anna@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing expenses, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Items []struct {
			User string `json:"user_email"`
			Date string `json:"date"`
		} `json:"items"`
		Total int64 `json:"total"`
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 3 || len(resp.Items) != 3 {
		t.Fatalf("expected 3 expenses, got total=%d items=%d", resp.Total, len(resp.Items))
	}
	if resp.Page != 1 || resp.Limit != 20 {
		t.Errorf("expected default page=1 limit=20, got page=%d limit=%d", resp.Page, resp.Limit)
	}
	wantDates := []string{"2024-01-12", "2024-01-11", "2024-01-10"}
	for i, item := range resp.Items {
		if item.Date != wantDates[i] {
			t.Errorf("item %d: expected date %s, got %s", i, wantDates[i], item.Date)
		}
		if item.User != "anna@example.com" {
			t.Errorf("item %d: unexpected user %s", i, item.User)
		}
	}
}

func TestListPaginationFallback(t *testing.T) {
	srv := newTestServer(t)
	postExpense(t, srv, "anna@example.com", "5.00", "Food", "2024-01-10")

	cases := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"zero limit", "limit=0", 1, 20},
		{"oversized limit", "limit=500", 1, 20},
		{"negative page", "page=-3", 1, 20},
		{"garbage", "page=abc&limit=xyz", 1, 20},
		{"valid", "page=2&limit=50", 2, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, "/api/expenses?email=anna@example.com&"+tc.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp struct {
				Page  int `json:"page"`
				Limit int `json:"limit"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Page != tc.wantPage || resp.Limit != tc.wantLimit {
				t.Errorf("expected page=%d limit=%d, got page=%d limit=%d",
					tc.wantPage, tc.wantLimit, resp.Page, resp.Limit)
			}
		})
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := postExpense(t, srv, "anna@example.com", "-5.00", "Food", "2024-01-10")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount, got %d", rec.Code)
	}

	rec = postExpense(t, srv, "anna@example.com", "5.00", "Food", "10/01/2024")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses?email=anna@example.com&from=not-a-date", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed range bound, got %d", rec.Code)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	srv := newTestServer(t)

	body := map[string]any{"email": "anna@example.com", "category": "Food", "limit": json.RawMessage("100.00")}
	rec := doJSON(t, srv, http.MethodPost, "/api/budgets", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating budget, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/budgets", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate budget, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPatch, "/api/budgets/Food", map[string]any{
		"email": "anna@example.com",
		"limit": json.RawMessage("250.00"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 patching budget, got %d: %s", rec.Code, rec.Body.String())
	}
	var patched struct {
		Affected int64 `json:"affected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &patched); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if patched.Affected != 1 {
		t.Errorf("expected affected=1, got %d", patched.Affected)
	}

	// Patching a pair that does not exist reports zero affected rows
	rec = doJSON(t, srv, http.MethodPatch, "/api/budgets/Travel", map[string]any{
		"email": "anna@example.com",
		"limit": json.RawMessage("50.00"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 patching missing budget, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &patched); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if patched.Affected != 0 {
		t.Errorf("expected affected=0 for missing budget, got %d", patched.Affected)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/budgets?email=anna@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing budgets, got %d", rec.Code)
	}
	var budgets []struct {
		Category string          `json:"category"`
		Limit    json.RawMessage `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &budgets); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Category != "Food" || string(budgets[0].Limit) != "250.00" {
		t.Errorf("unexpected budget listing: %s", rec.Body.String())
	}
}

func TestBudgetAlertOnCreate(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"email": "anna@example.com", "category": "Food", "limit": json.RawMessage("100.00"),
	})

	rec := postExpense(t, srv, "anna@example.com", "130.00", "Food", "2024-01-10")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Alerts []struct {
			Kind     string `json:"kind"`
			Category string `json:"category"`
		} `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Alerts) != 1 || resp.Alerts[0].Kind != "budget_exceeded" || resp.Alerts[0].Category != "Food" {
		t.Errorf("expected a budget_exceeded alert for Food, got %s", rec.Body.String())
	}
}

func TestWalletEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/wallet?email=anna@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading absent wallet, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"total_funds":0.00}` {
		t.Errorf("expected zero wallet, got %s", got)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/wallet", map[string]any{
		"email": "anna@example.com", "total_funds": json.RawMessage("1500.00"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 setting wallet, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/wallet?email=anna@example.com", nil)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"total_funds":1500.00}` {
		t.Errorf("expected stored wallet, got %s", got)
	}
}

func TestExportHeaders(t *testing.T) {
	srv := newTestServer(t)
	postExpense(t, srv, "anna@example.com", "45.20", "Food", "2024-01-15")

	rec := doJSON(t, srv, http.MethodGet, "/api/expenses/export?email=anna@example.com&format=xlsx&from=2024-01-01&to=2024-01-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 exporting, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "expenses_from-2024-01-01_to-2024-01-31.xlsx") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty export body")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses/export?email=anna@example.com&format=csv&from=2024-01-01", nil)
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `"expenses.csv"`) {
		t.Errorf("expected fixed csv filename, got %q", cd)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/signup", map[string]string{
		"email": "Anna@Example.com", "password": "secret", "name": "Anna",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on signup, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/signup", map[string]string{
		"email": "anna@example.com", "password": "other",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate signup, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/login", map[string]string{
		"email": "anna@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/login", map[string]string{
		"email": "anna@example.com", "password": "secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string  `json:"token"`
		Email string  `json:"email"`
		Name  *string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if login.Token == "" || login.Email != "anna@example.com" || login.Name == nil || *login.Name != "Anna" {
		t.Errorf("unexpected login payload: %s", rec.Body.String())
	}

	// First login with an unknown email registers on the fly
	rec = doJSON(t, srv, http.MethodPost, "/api/login", map[string]string{
		"email": "new@example.com", "password": "pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 auto-registering login, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/profile?email=new@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading profile, got %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/profile?email=ghost@example.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown profile, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/expenses?email=anna@example.com", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff header, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected DENY frame options, got %q", got)
	}
}
