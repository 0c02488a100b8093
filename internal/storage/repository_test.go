package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"perdiem/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Missing user resolves to defaults.
	u, err := repo.GetUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if u.Timezone != core.DefaultTimezone || u.CurrencyCode != core.DefaultCurrency || u.Plan != core.DefaultPlan {
		t.Fatalf("missing user defaults broken: %+v", u)
	}

	if err := repo.EnsureUser(ctx, "u1", "u1@example.com"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	// Idempotent.
	if err := repo.EnsureUser(ctx, "u1", "other@example.com"); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}

	u, err = repo.UpdateUserSettings(ctx, "u1", "EUR", "Europe/Rome")
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if u.CurrencyCode != "EUR" || u.Timezone != "Europe/Rome" || u.Email != "u1@example.com" {
		t.Fatalf("updated user = %+v", u)
	}
}

func TestBudgetReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.EnsureUser(ctx, "u1", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	cfg, err := repo.GetBudget(ctx, "u1")
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil budget, got %+v", cfg)
	}

	first := core.BudgetConfig{
		DailyAllowanceCents: 2000,
		StartDate:           core.LocalDay{Year: 2024, Month: time.January, Day: 1},
		CurrencyCode:        "USD",
	}
	if err := repo.ReplaceBudget(ctx, "u1", first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := first
	second.DailyAllowanceCents = 3500
	if err := repo.ReplaceBudget(ctx, "u1", second); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	cfg, err = repo.GetBudget(ctx, "u1")
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if cfg == nil || cfg.DailyAllowanceCents != 3500 || !cfg.StartDate.Equal(first.StartDate) {
		t.Fatalf("budget after replace = %+v", cfg)
	}

	users, err := repo.ListBudgetUsers(ctx)
	if err != nil {
		t.Fatalf("list budget users: %v", err)
	}
	if len(users) != 1 || users[0] != "u1" {
		t.Fatalf("budget users = %v", users)
	}
}

func TestTransactionsWindow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.EnsureUser(ctx, "u1", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	post := func(iso string, cents int64) {
		t.Helper()
		at, err := time.Parse(time.RFC3339, iso)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		_, err = repo.InsertTransaction(ctx, core.Transaction{
			UserID:       "u1",
			AmountCents:  cents,
			CurrencyCode: "USD",
			PostedAt:     at,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	post("2024-01-01T10:00:00Z", -500)
	post("2024-01-02T10:00:00Z", -250)
	post("2024-01-03T10:00:00Z", -100)

	from, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	to, _ := time.Parse(time.RFC3339, "2024-01-03T00:00:00Z")
	txns, err := repo.ListTransactions(ctx, "u1", from, to)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("half-open window returned %d txns", len(txns))
	}
	if txns[0].AmountCents != -500 || txns[1].AmountCents != -250 {
		t.Fatalf("txns = %+v", txns)
	}
	if txns[0].Source != core.SourceManual {
		t.Fatalf("default source = %s", txns[0].Source)
	}
}

func TestTransactionsWindowFractionalSeconds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.EnsureUser(ctx, "u1", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// Half a second past the window start. Stored timestamps must compare
	// correctly against a whole-second window boundary.
	at, err := time.Parse(time.RFC3339Nano, "2024-01-02T05:00:00.5Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := repo.InsertTransaction(ctx, core.Transaction{
		UserID:       "u1",
		AmountCents:  -300,
		CurrencyCode: "USD",
		PostedAt:     at,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	from, _ := time.Parse(time.RFC3339, "2024-01-02T05:00:00Z")
	to, _ := time.Parse(time.RFC3339, "2024-01-03T05:00:00Z")
	txns, err := repo.ListTransactions(ctx, "u1", from, to)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("window returned %d txns, want 1", len(txns))
	}
	if !txns[0].PostedAt.Equal(at) {
		t.Fatalf("posted_at = %s, want %s", txns[0].PostedAt, at)
	}

	prev, err := repo.ListTransactions(ctx, "u1", from.AddDate(0, 0, -1), from)
	if err != nil {
		t.Fatalf("list prior day: %v", err)
	}
	if len(prev) != 0 {
		t.Fatalf("prior day returned %d txns, want 0", len(prev))
	}
}

func TestDailyBalances(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.EnsureUser(ctx, "u1", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	day := core.LocalDay{Year: 2024, Month: time.January, Day: 2}

	_, ok, err := repo.GetDailyBalance(ctx, "u1", day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}

	if err := repo.UpsertDailyBalance(ctx, "u1", day, 1500); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertDailyBalance(ctx, "u1", day, -300); err != nil {
		t.Fatalf("upsert overwrite: %v", err)
	}

	cents, ok, err := repo.GetDailyBalance(ctx, "u1", day)
	if err != nil || !ok {
		t.Fatalf("get after upsert: %v ok=%v", err, ok)
	}
	if cents != -300 {
		t.Fatalf("balance = %d", cents)
	}
}
