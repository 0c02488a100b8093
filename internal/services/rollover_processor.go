package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"perdiem/internal/cache"
	"perdiem/internal/core"
	"perdiem/internal/log"
)

// RolloverProcessor recomputes and persists closed-day rollover balances.
// It is the writer behind the daily_balances table the today snapshot
// reads; the walk always starts at the budget start date, since rollover
// cannot accrue before it.
type RolloverProcessor struct {
	users     UserDirectory
	budgets   BudgetStore
	txns      TransactionStore
	balances  BalanceStore
	rollovers cache.RolloverCache // may be nil
	batchSize int
	logger    *log.Logger

	now func() time.Time
}

func NewRolloverProcessor(users UserDirectory, budgets BudgetStore, txns TransactionStore, balances BalanceStore, rollovers cache.RolloverCache, batchSize int, logger *log.Logger) *RolloverProcessor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &RolloverProcessor{
		users:     users,
		budgets:   budgets,
		txns:      txns,
		balances:  balances,
		rollovers: rollovers,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// RefreshUser rewalks the user's ledger from the budget start through
// yesterday (in the user's zone) and upserts every day's ending rollover.
// Today is deliberately excluded: it is still open.
func (p *RolloverProcessor) RefreshUser(ctx context.Context, userID string) error {
	user, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	loc, err := user.Location()
	if err != nil {
		return err
	}

	budget, err := p.budgets.GetBudget(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve budget: %w", err)
	}
	if budget == nil {
		// No budget, nothing to close out.
		return nil
	}

	yesterday := core.DayOf(p.now(), loc).AddDays(-1)
	if yesterday.Before(budget.StartDate) {
		return nil
	}

	startUTC, _ := budget.StartDate.Window(loc)
	_, endUTC := yesterday.Window(loc)
	txns, err := p.txns.ListTransactions(ctx, userID, startUTC, endUTC)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	rows, err := core.ComputeLedgerRange(budget, loc, budget.StartDate, yesterday, txns)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := p.balances.UpsertDailyBalance(ctx, userID, row.Date, row.EndingRolloverCents); err != nil {
			return fmt.Errorf("persist balance for %s: %w", row.Date, err)
		}
	}

	last := rows[len(rows)-1]
	if p.rollovers != nil {
		if err := p.rollovers.Set(ctx, userID, last.Date, last.EndingRolloverCents); err != nil {
			p.logger.WarnContext(ctx, "Rollover cache write failed",
				log.FieldUserID, userID,
				log.FieldDate, last.Date.String(),
				log.FieldError, err)
		}
	}

	p.logger.InfoContext(ctx, "Closed-day balances refreshed",
		log.FieldUserID, userID,
		log.FieldDays, len(rows),
		log.FieldDate, last.Date.String(),
		log.FieldRolloverCents, last.EndingRolloverCents)
	return nil
}

// CloseOutAll refreshes every user that has an active budget, at most
// batchSize users at a time. Failures are logged per user and do not stop
// the pass.
func (p *RolloverProcessor) CloseOutAll(ctx context.Context) error {
	users, err := p.budgets.ListBudgetUsers(ctx)
	if err != nil {
		return fmt.Errorf("list budget users: %w", err)
	}

	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(p.batchSize)
	for _, userID := range users {
		userID := userID
		g.Go(func() error {
			if err := p.RefreshUser(ctx, userID); err != nil {
				failed.Add(1)
				p.logger.ErrorContext(ctx, "Close-out failed for user",
					log.FieldUserID, userID,
					log.FieldError, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	p.logger.InfoContext(ctx, "Close-out pass finished",
		"users", len(users),
		"failed", failed.Load())
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("close-out failed for %d of %d users", n, len(users))
	}
	return nil
}
