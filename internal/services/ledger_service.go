package services

import (
	"context"
	"fmt"
	"time"

	"perdiem/internal/cache"
	"perdiem/internal/core"
	"perdiem/internal/log"
)

// LedgerService orchestrates ledger reads and writes across the user
// directory, budget store, transaction store, and rollover cache. The
// arithmetic itself lives in core; this layer only assembles inputs and
// persists outcomes.
type LedgerService struct {
	users     UserDirectory
	budgets   BudgetStore
	txns      TransactionStore
	balances  BalanceStore
	rollovers cache.RolloverCache // optional fast path, may be nil
	publisher RefreshPublisher    // optional, may be nil
	logger    *log.Logger

	now func() time.Time
}

func NewLedgerService(users UserDirectory, budgets BudgetStore, txns TransactionStore, balances BalanceStore, rollovers cache.RolloverCache, publisher RefreshPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		users:     users,
		budgets:   budgets,
		txns:      txns,
		balances:  balances,
		rollovers: rollovers,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

// History walks the last `days` days (plus today) for the user and returns
// the rows in ascending order, ending on the user's current local day.
func (s *LedgerService) History(ctx context.Context, userID string, days int) (core.User, []core.LedgerRow, error) {
	user, loc, err := s.resolveUser(ctx, userID)
	if err != nil {
		return core.User{}, nil, err
	}

	today := core.DayOf(s.now(), loc)
	first := today.AddDays(-days)

	budget, err := s.budgets.GetBudget(ctx, userID)
	if err != nil {
		return core.User{}, nil, fmt.Errorf("resolve budget: %w", err)
	}

	startUTC, _ := first.Window(loc)
	_, endUTC := today.Window(loc)
	txns, err := s.txns.ListTransactions(ctx, userID, startUTC, endUTC)
	if err != nil {
		return core.User{}, nil, fmt.Errorf("list transactions: %w", err)
	}

	rows, err := core.ComputeLedgerRange(budget, loc, first, today, txns)
	if err != nil {
		return core.User{}, nil, err
	}

	s.logger.DebugContext(ctx, "Computed ledger history",
		log.FieldOperation, log.OpHistory,
		log.FieldUserID, userID,
		log.FieldDays, len(rows),
		log.FieldTimezone, loc.String())
	return user, rows, nil
}

// TodaySummary computes the single current-day ledger row using the cached
// prior-day rollover instead of re-walking history. The rollover is read
// from the fast cache first, then the durable daily_balances store, and
// defaults to 0 when both miss; a stale value skews the result, which is
// the documented trade-off of this path.
func (s *LedgerService) TodaySummary(ctx context.Context, userID string) (core.User, core.LedgerRow, error) {
	user, loc, err := s.resolveUser(ctx, userID)
	if err != nil {
		return core.User{}, core.LedgerRow{}, err
	}

	today := core.DayOf(s.now(), loc)

	budget, err := s.budgets.GetBudget(ctx, userID)
	if err != nil {
		return core.User{}, core.LedgerRow{}, fmt.Errorf("resolve budget: %w", err)
	}

	// Rollover only exists once the budget is running. Balance rows left
	// over from before a replaced budget's start date must not leak in.
	var rollover int64
	yesterday := today.AddDays(-1)
	if budget != nil && !yesterday.Before(budget.StartDate) {
		rollover = s.priorRollover(ctx, userID, yesterday)
	}

	startUTC, endUTC := today.Window(loc)
	txns, err := s.txns.ListTransactions(ctx, userID, startUTC, endUTC)
	if err != nil {
		return core.User{}, core.LedgerRow{}, fmt.Errorf("list transactions: %w", err)
	}

	row, err := core.ComputeTodaySnapshot(budget, loc, today, txns, rollover)
	if err != nil {
		return core.User{}, core.LedgerRow{}, err
	}

	s.logger.DebugContext(ctx, "Computed today snapshot",
		log.FieldOperation, log.OpSnapshot,
		log.FieldUserID, userID,
		log.FieldDate, row.Date.String(),
		log.FieldSpentCents, row.SpentCents,
		log.FieldRolloverCents, row.EndingRolloverCents)
	return user, row, nil
}

// priorRollover resolves the ending rollover for the day before today.
// Cache failures degrade to the durable store; a full miss means 0.
func (s *LedgerService) priorRollover(ctx context.Context, userID string, yesterday core.LocalDay) int64 {
	if s.rollovers != nil {
		cents, ok, err := s.rollovers.Get(ctx, userID, yesterday)
		if err != nil {
			s.logger.WarnContext(ctx, "Rollover cache read failed, falling back to store",
				log.FieldUserID, userID,
				log.FieldDate, yesterday.String(),
				log.FieldError, err)
		} else if ok {
			return cents
		}
	}

	cents, ok, err := s.balances.GetDailyBalance(ctx, userID, yesterday)
	if err != nil {
		s.logger.WarnContext(ctx, "Daily balance read failed, defaulting rollover to 0",
			log.FieldUserID, userID,
			log.FieldDate, yesterday.String(),
			log.FieldError, err)
		return 0
	}
	if !ok {
		return 0
	}

	if s.rollovers != nil {
		if err := s.rollovers.Set(ctx, userID, yesterday, cents); err != nil {
			s.logger.WarnContext(ctx, "Rollover cache prime failed",
				log.FieldUserID, userID,
				log.FieldError, err)
		}
	}
	return cents
}

// AddTransaction records a spend of the given magnitude. Spends are stored
// as negative cents; sign convention is applied here, at the boundary.
func (s *LedgerService) AddTransaction(ctx context.Context, userID, email string, amountCents int64, name, currencyCode string, postedAt time.Time) (int64, error) {
	if amountCents < 0 {
		amountCents = -amountCents
	}
	if postedAt.IsZero() {
		postedAt = s.now()
	}
	if currencyCode == "" {
		currencyCode = core.DefaultCurrency
	}

	if err := s.users.EnsureUser(ctx, userID, email); err != nil {
		return 0, fmt.Errorf("ensure user: %w", err)
	}

	id, err := s.txns.InsertTransaction(ctx, core.Transaction{
		UserID:       userID,
		AmountCents:  -amountCents,
		CurrencyCode: currencyCode,
		Name:         name,
		Source:       core.SourceManual,
		PostedAt:     postedAt.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, userID,
		log.FieldTransactionID, id,
		log.FieldAmountCents, -amountCents)

	// A backdated transaction invalidates closed-day balances; ask the
	// worker to recompute. Local failure is non-fatal: the write landed.
	s.publishRefresh(ctx, userID, postedAt)

	return id, nil
}

// UpsertBudget replaces the user's active budget and mirrors the currency
// onto the profile. Replacement is delete-then-insert in the store; the
// brief no-budget window it opens is an accepted degradation.
func (s *LedgerService) UpsertBudget(ctx context.Context, userID, email string, cfg core.BudgetConfig) (core.BudgetConfig, error) {
	if err := cfg.Validate(); err != nil {
		return core.BudgetConfig{}, err
	}
	if cfg.CurrencyCode == "" {
		cfg.CurrencyCode = core.DefaultCurrency
	}

	if err := s.users.EnsureUser(ctx, userID, email); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("ensure user: %w", err)
	}
	if err := s.budgets.ReplaceBudget(ctx, userID, cfg); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("replace budget: %w", err)
	}
	if err := s.users.UpdateUserCurrency(ctx, userID, cfg.CurrencyCode); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("update user currency: %w", err)
	}

	// New allowance or start date changes every closed-day balance.
	s.publishRefresh(ctx, userID, s.now())

	return cfg, nil
}

// Profile resolves the user's profile, applying directory defaults.
func (s *LedgerService) Profile(ctx context.Context, userID string) (core.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates the user's currency and timezone settings.
func (s *LedgerService) UpdateProfile(ctx context.Context, userID, email, currencyCode, timezone string) (core.User, error) {
	if timezone == "" {
		timezone = core.DefaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return core.User{}, core.ErrInvalidTimezone
	}
	if currencyCode == "" {
		currencyCode = core.DefaultCurrency
	}

	if err := s.users.EnsureUser(ctx, userID, email); err != nil {
		return core.User{}, fmt.Errorf("ensure user: %w", err)
	}
	user, err := s.users.UpdateUserSettings(ctx, userID, currencyCode, timezone)
	if err != nil {
		return core.User{}, fmt.Errorf("update user settings: %w", err)
	}
	return user, nil
}

func (s *LedgerService) resolveUser(ctx context.Context, userID string) (core.User, *time.Location, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, nil, fmt.Errorf("resolve user: %w", err)
	}
	loc, err := user.Location()
	if err != nil {
		return core.User{}, nil, err
	}
	return user, loc, nil
}

func (s *LedgerService) publishRefresh(ctx context.Context, userID string, at time.Time) {
	if s.publisher == nil {
		return
	}
	fromDate := core.DayOf(at, time.UTC).String()
	if err := s.publisher.PublishRolloverRefresh(ctx, userID, fromDate); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish rollover refresh",
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}
