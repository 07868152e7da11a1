package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound means the referenced user, budget or wallet row is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("already exists")
	// ErrWriteFailed means an atomic write was rolled back. Nothing was
	// persisted, so the operation is safe to retry.
	ErrWriteFailed = errors.New("write failed")
)

// SQLiteRepository owns the single database handle for the process.
// It is opened once at startup (running migrations first) and closed at
// shutdown; nothing else holds connection state.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// sqlite allows a single writer; one pooled connection keeps
	// concurrent recorder calls queued instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Health probes the database connection.
func (r *SQLiteRepository) Health(ctx context.Context) error {
	var ok int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return fmt.Errorf("db health probe: %w", err)
	}
	return nil
}

// RecordExpense appends a ledger entry and bumps the matching budget
// aggregate as one transaction. The increment happens inside the upsert
// statement, never as application-side read-modify-write, so concurrent
// calls for the same (user, category) cannot lose an update.
func (r *SQLiteRepository) RecordExpense(ctx context.Context, e core.Expense) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %v", ErrWriteFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (user_email, amount_cents, category, description, date)
		 VALUES (?, ?, ?, ?, ?)`,
		e.User, e.Amount.Cents, e.Category, e.Description, e.Date.ISO())
	if err != nil {
		return 0, fmt.Errorf("%w: insert expense: %v", ErrWriteFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: expense id: %v", ErrWriteFailed, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budgets (user_email, category, limit_cents, spent_cents)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT (user_email, category)
		 DO UPDATE SET spent_cents = spent_cents + excluded.spent_cents`,
		e.User, e.Category, e.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("%w: upsert budget aggregate: %v", ErrWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrWriteFailed, err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", id,
		"user", e.User,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.ISO())

	return id, nil
}

// CreateBudget inserts a fresh aggregate row with spent = 0. The unique
// (user, category) constraint makes concurrent creators race safely: one
// wins, the rest get ErrDuplicate.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, user, category string, limitCents int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_email, category, limit_cents, spent_cents) VALUES (?, ?, ?, 0)`,
		user, category, limitCents)
	if isUniqueViolation(err) {
		return fmt.Errorf("budget for category %q: %w", category, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

// UpdateBudgetLimit sets the limit without touching spent. The affected
// row count is returned as-is; zero means the pair does not exist and the
// caller decides what that means.
func (r *SQLiteRepository) UpdateBudgetLimit(ctx context.Context, user, category string, limitCents int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET limit_cents = ? WHERE user_email = ? AND category = ?`,
		limitCents, user, category)
	if err != nil {
		return 0, fmt.Errorf("update budget limit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update budget limit affected rows: %w", err)
	}
	return affected, nil
}

func (r *SQLiteRepository) BudgetFor(ctx context.Context, user, category string) (core.Budget, error) {
	b := core.Budget{User: user, Category: category}
	err := r.db.QueryRowContext(ctx,
		`SELECT limit_cents, spent_cents FROM budgets WHERE user_email = ? AND category = ?`,
		user, category).Scan(&b.Limit.Cents, &b.Spent.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget for category %q: %w", category, ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, user string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, limit_cents, spent_cents FROM budgets WHERE user_email = ? ORDER BY category`,
		user)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b := core.Budget{User: user}
		if err := rows.Scan(&b.Category, &b.Limit.Cents, &b.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// Wallet returns the user's total funds in cents, zero if no row exists.
func (r *SQLiteRepository) Wallet(ctx context.Context, user string) (int64, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT total_funds_cents FROM wallets WHERE user_email = ?`, user).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get wallet: %w", err)
	}
	return cents, nil
}

// SetWallet upserts total funds unconditionally, last write wins.
func (r *SQLiteRepository) SetWallet(ctx context.Context, user string, cents int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (user_email, total_funds_cents) VALUES (?, ?)
		 ON CONFLICT (user_email) DO UPDATE SET total_funds_cents = excluded.total_funds_cents`,
		user, cents)
	if err != nil {
		return fmt.Errorf("set wallet: %w", err)
	}
	return nil
}

// TotalSpent sums all ledger amounts for the user. Used only for the
// advisory funds alert after a recorder write.
func (r *SQLiteRepository) TotalSpent(ctx context.Context, user string) (int64, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_email = ?`, user).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("total spent: %w", err)
	}
	return cents, nil
}

// ExpenseFilter selects a user's ledger slice, optionally bounded by
// inclusive calendar dates.
type ExpenseFilter struct {
	User string
	From core.Date
	To   core.Date
}

func (f ExpenseFilter) where() (string, []any) {
	clause := `WHERE user_email = ?`
	args := []any{f.User}
	if !f.From.IsEmpty() {
		clause += ` AND date >= ?`
		args = append(args, f.From.ISO())
	}
	if !f.To.IsEmpty() {
		clause += ` AND date <= ?`
		args = append(args, f.To.ISO())
	}
	return clause, args
}

func (r *SQLiteRepository) CountExpenses(ctx context.Context, f ExpenseFilter) (int64, error) {
	clause, args := f.where()
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses `+clause, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return total, nil
}

// ListExpenses returns one statement page, newest first. Same-date rows
// order by descending id so the total order is deterministic.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, f ExpenseFilter, limit, offset int) ([]core.Expense, error) {
	clause, args := f.where()
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, amount_cents, category, description, date
		 FROM expenses `+clause+`
		 ORDER BY date DESC, id DESC
		 LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// AllExpenses returns the full unpaginated matching set for export.
func (r *SQLiteRepository) AllExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	clause, args := f.where()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, amount_cents, category, description, date
		 FROM expenses `+clause+`
		 ORDER BY date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		var (
			e    core.Expense
			date string
		)
		if err := rows.Scan(&e.ID, &e.User, &e.Amount.Cents, &e.Category, &e.Description, &date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("expense %d has malformed date %q", e.ID, date)
		}
		e.Date = d
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// User is the persisted account row. Password is the demo-grade plaintext
// credential; it never leaves the auth handlers.
type User struct {
	Email     string
	Password  string
	Name      string
	AvatarURL string
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password, name) VALUES (?, ?, ?)`,
		u.Email, u.Password, nullable(u.Name))
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (User, error) {
	var (
		u      User
		name   sql.NullString
		avatar sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT email, password, name, avatar_url FROM users WHERE email = ?`, email).
		Scan(&u.Email, &u.Password, &name, &avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.Name = name.String
	u.AvatarURL = avatar.String
	return u, nil
}

func (r *SQLiteRepository) UpdateProfileName(ctx context.Context, email, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ? WHERE email = ?`, nullable(name), email)
	if err != nil {
		return 0, fmt.Errorf("update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update profile affected rows: %w", err)
	}
	return affected, nil
}

func (r *SQLiteRepository) SetAvatar(ctx context.Context, email, url string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_url = ? WHERE email = ?`, url, email)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
