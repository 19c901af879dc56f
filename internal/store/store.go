// Package store defines the persistence interface for historical bar data
// and provides SQLite and Parquet backed implementations. Fetched price
// history is written through here so repeated requests do not hit the
// brokerage.
package store

import (
	"context"
	"time"

	"tradebridge/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with any already stored.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the symbol within [start, end] in
	// chronological order.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}
