package bridge

import (
	"context"
	"fmt"
	"time"

	"tradebridge/internal/domain"
)

// RefreshAccountSummary pulls the account snapshot from the brokerage,
// overwrites the single account record in place, and emits a copy on the
// event bus. Broker failures are logged and returned without touching the
// record.
func (b *Bridge) RefreshAccountSummary(ctx context.Context) error {
	callCtx, cancel := b.callCtx(ctx)
	defer cancel()

	info, err := b.client.GetAccountInfo(callCtx)
	if err != nil {
		b.log.Warn("account refresh failed", "error", err)
		return fmt.Errorf("refreshing account summary: %w", err)
	}

	b.accountMu.Lock()
	b.account.Balance = info.CashBalance
	b.account.Available = info.AvailableFunds
	b.account.UpdatedAt = time.Now().UTC()
	snapshot := b.account
	b.accountMu.Unlock()

	b.events.Publish(snapshot)
	b.log.Debug("account summary refreshed",
		"balance", snapshot.Balance, "available", snapshot.Available)
	return nil
}

// AccountSummary returns a copy of the current account record.
func (b *Bridge) AccountSummary() domain.AccountSummary {
	b.accountMu.RLock()
	defer b.accountMu.RUnlock()
	return b.account
}

// RefreshPositions pulls current positions from the brokerage and emits each
// as an individual Position event. Positions are snapshots, not retained
// state; an empty result emits nothing. Broker failures are logged and
// returned.
func (b *Bridge) RefreshPositions(ctx context.Context) error {
	callCtx, cancel := b.callCtx(ctx)
	defer cancel()

	positions, err := b.client.GetPositions(callCtx)
	if err != nil {
		b.log.Warn("position refresh failed", "error", err)
		return fmt.Errorf("refreshing positions: %w", err)
	}

	now := time.Now().UTC()
	for _, p := range positions {
		b.events.Publish(domain.Position{
			Symbol:    p.Symbol,
			Qty:       p.Qty,
			AvgCost:   p.AvgPrice,
			UpdatedAt: now,
		})
	}
	b.log.Debug("positions refreshed", "count", len(positions))
	return nil
}
