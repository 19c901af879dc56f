package bridge

import (
	"context"
	"fmt"
	"time"

	"tradebridge/internal/broker"
	"tradebridge/internal/domain"
)

// FetchHistory pulls daily price history for the symbol and replays it as
// trade ticks on the dedicated market-data bus, one tick per bar at the
// bar's close, in chronological order. A malformed candle is skipped with a
// warning rather than aborting the sequence. When a bar store is configured
// the fetched bars are also written through for later reads. Returns the
// number of ticks emitted.
func (b *Bridge) FetchHistory(ctx context.Context, symbol string) (int, error) {
	callCtx, cancel := b.callCtx(ctx)
	defer cancel()

	candles, err := b.client.GetPriceHistory(callCtx, symbol)
	if err != nil {
		b.log.Warn("price history fetch failed", "symbol", symbol, "error", err)
		return 0, fmt.Errorf("fetching history for %s: %w", symbol, err)
	}

	emitted := 0
	bars := make([]domain.Bar, 0, len(candles))
	for _, c := range candles {
		if c.Timestamp <= 0 || c.Close <= 0 {
			b.log.Warn("skipping malformed candle",
				"symbol", symbol, "timestamp", c.Timestamp, "close", c.Close)
			continue
		}
		ts := time.UnixMilli(c.Timestamp).UTC()
		b.ticks.Publish(domain.Tick{
			Symbol:    symbol,
			Timestamp: ts,
			Price:     c.Close,
			Type:      domain.TickTypeTrade,
		})
		emitted++
		bars = append(bars, candleToBar(symbol, c, ts))
	}

	if b.bars != nil && len(bars) > 0 {
		if err := b.bars.WriteBars(ctx, bars); err != nil {
			// Persistence is best effort; the ticks already went out.
			b.log.Warn("bar write-through failed", "symbol", symbol, "error", err)
		}
	}

	b.log.Info("history replayed", "symbol", symbol, "ticks", emitted)
	return emitted, nil
}

func candleToBar(symbol string, c broker.Candle, ts time.Time) domain.Bar {
	return domain.Bar{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}
