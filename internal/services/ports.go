package services

import (
	"context"
	"time"

	"perdiem/internal/core"
)

// The ledger consumes these collaborator stores; storage.SQLiteRepository
// implements all four.

// UserDirectory resolves and maintains user profiles.
type UserDirectory interface {
	EnsureUser(ctx context.Context, id, email string) error
	GetUser(ctx context.Context, id string) (core.User, error)
	UpdateUserSettings(ctx context.Context, id, currencyCode, timezone string) (core.User, error)
	UpdateUserCurrency(ctx context.Context, id, currencyCode string) error
}

// BudgetStore resolves a user's active budget configuration.
type BudgetStore interface {
	GetBudget(ctx context.Context, userID string) (*core.BudgetConfig, error)
	ReplaceBudget(ctx context.Context, userID string, cfg core.BudgetConfig) error
	ListBudgetUsers(ctx context.Context) ([]string, error)
}

// TransactionStore records and queries posted transactions by UTC window.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
}

// BalanceStore is the durable rollover cache, keyed by closed local day.
type BalanceStore interface {
	GetDailyBalance(ctx context.Context, userID string, day core.LocalDay) (int64, bool, error)
	UpsertDailyBalance(ctx context.Context, userID string, day core.LocalDay, endingRolloverCents int64) error
}

// RefreshPublisher asks the worker to recompute a user's closed-day
// balances after a change that invalidates them.
type RefreshPublisher interface {
	PublishRolloverRefresh(ctx context.Context, userID, fromDate string) error
}
