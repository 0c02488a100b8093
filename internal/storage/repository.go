package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"perdiem/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements the collaborator stores for the ledger: the
// user directory, the budget store, the transaction store, and the durable
// side of the rollover cache (daily_balances).
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable, for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureUser inserts the user row if it does not exist yet.
func (r *SQLiteRepository) EnsureUser(ctx context.Context, id, email string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING`, id, nullable(email))
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// GetUser resolves a user profile. A missing row yields a profile filled
// with defaults rather than an error, matching the directory contract.
func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u := core.User{
		ID:           id,
		Plan:         core.DefaultPlan,
		CurrencyCode: core.DefaultCurrency,
		Timezone:     core.DefaultTimezone,
	}
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT email, plan, currency_code, timezone FROM users WHERE id = ?`, id).
		Scan(&email, &u.Plan, &u.CurrencyCode, &u.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	u.Email = email.String
	return u, nil
}

// UpdateUserSettings updates currency and timezone for an existing user.
func (r *SQLiteRepository) UpdateUserSettings(ctx context.Context, id, currencyCode, timezone string) (core.User, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET currency_code = ?, timezone = ? WHERE id = ?`,
		currencyCode, timezone, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user settings: %w", err)
	}
	return r.GetUser(ctx, id)
}

// UpdateUserCurrency stores the currency on the user row, used when a
// budget upsert carries a currency code.
func (r *SQLiteRepository) UpdateUserCurrency(ctx context.Context, id, currencyCode string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE users SET currency_code = ? WHERE id = ?`, currencyCode, id); err != nil {
		return fmt.Errorf("update user currency: %w", err)
	}
	return nil
}

// GetBudget resolves the user's active budget. Returns (nil, nil) when no
// budget exists; the ledger treats that as all-days-pre-budget.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID string) (*core.BudgetConfig, error) {
	var (
		cents     int64
		startDate string
		currency  string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT daily_allowance_cents, start_date, currency_code
		FROM budgets WHERE user_id = ?
		ORDER BY id DESC LIMIT 1`, userID).
		Scan(&cents, &startDate, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget for %s: %w", userID, err)
	}
	start, err := core.ParseLocalDay(startDate)
	if err != nil {
		return nil, fmt.Errorf("budget start date for %s: %w", userID, err)
	}
	return &core.BudgetConfig{
		DailyAllowanceCents: cents,
		StartDate:           start,
		CurrencyCode:        currency,
	}, nil
}

// ReplaceBudget enforces one active budget per user by deleting any prior
// rows before inserting the new one. The two statements are intentionally
// not wrapped in a transaction: a concurrent ledger read may observe the
// no-budget window between them, which is an accepted degradation rather
// than a guarantee this layer makes.
func (r *SQLiteRepository) ReplaceBudget(ctx context.Context, userID string, cfg core.BudgetConfig) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete prior budget: %w", err)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, daily_allowance_cents, start_date, currency_code)
		VALUES (?, ?, ?, ?)`,
		userID, cfg.DailyAllowanceCents, cfg.StartDate.String(), cfg.CurrencyCode)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget replaced",
		"user_id", userID,
		"daily_allowance_cents", cfg.DailyAllowanceCents,
		"start_date", cfg.StartDate.String())
	return nil
}

// postedAtLayout is fixed width (always 9 fractional digits, always UTC)
// so SQLite's lexical TEXT ordering matches temporal ordering. Variable
// width forms like RFC3339Nano break range queries: "…:00.5Z" sorts before
// "…:00Z" because '.' < 'Z'.
const postedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InsertTransaction stores a posted transaction and returns its id.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	source := t.Source
	if source == "" {
		source = core.SourceManual
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, source, amount_cents, currency_code, name, posted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, source, t.AmountCents, t.CurrencyCode, nullable(t.Name),
		t.PostedAt.UTC().Format(postedAtLayout))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

// ListTransactions returns the user's transactions with posted_at in the
// half-open UTC interval [from, to).
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, source, amount_cents, currency_code, name, posted_at
		FROM transactions
		WHERE user_id = ? AND posted_at >= ? AND posted_at < ?
		ORDER BY posted_at`,
		userID, from.UTC().Format(postedAtLayout), to.UTC().Format(postedAtLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			name     sql.NullString
			postedAt string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Source, &t.AmountCents, &t.CurrencyCode, &name, &postedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Name = name.String
		t.PostedAt, err = time.Parse(postedAtLayout, postedAt)
		if err != nil {
			return nil, fmt.Errorf("parse posted_at %q: %w", postedAt, err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

// GetDailyBalance reads a closed day's ending rollover from daily_balances.
func (r *SQLiteRepository) GetDailyBalance(ctx context.Context, userID string, day core.LocalDay) (int64, bool, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT ending_rollover_cents FROM daily_balances WHERE user_id = ? AND date = ?`,
		userID, day.String()).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get daily balance: %w", err)
	}
	return cents, true, nil
}

// UpsertDailyBalance writes a closed day's ending rollover.
func (r *SQLiteRepository) UpsertDailyBalance(ctx context.Context, userID string, day core.LocalDay, endingRolloverCents int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_balances (user_id, date, ending_rollover_cents, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(user_id, date) DO UPDATE SET
			ending_rollover_cents = excluded.ending_rollover_cents,
			updated_at = excluded.updated_at`,
		userID, day.String(), endingRolloverCents)
	if err != nil {
		return fmt.Errorf("upsert daily balance: %w", err)
	}
	return nil
}

// ListBudgetUsers returns the ids of users that have an active budget,
// used by the worker's close-out pass.
func (r *SQLiteRepository) ListBudgetUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("list budget users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget users: %w", err)
	}
	return ids, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
