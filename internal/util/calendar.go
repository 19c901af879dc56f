package util

import (
	"time"

	"tradebridge/internal/domain"
)

// TradingCalendar provides market-hours awareness for a specific market.
// Holidays are not modeled; callers that need exact session boundaries
// should consult the brokerage calendar API instead.
type TradingCalendar struct {
	market domain.Market
	loc    *time.Location
}

// NewTradingCalendar creates a TradingCalendar for the given market.
func NewTradingCalendar(market domain.Market) *TradingCalendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &TradingCalendar{
		market: market,
		loc:    loc,
	}
}

// IsMarketOpen returns whether the regular session is open at time t
// (US: 9:30-16:00 ET, weekdays).
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	lt := t.In(tc.loc)
	switch lt.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	open := time.Date(lt.Year(), lt.Month(), lt.Day(), 9, 30, 0, 0, tc.loc)
	close := time.Date(lt.Year(), lt.Month(), lt.Day(), 16, 0, 0, 0, tc.loc)
	return !lt.Before(open) && lt.Before(close)
}

// NextOpen returns the next regular-session open at or after t.
func (tc *TradingCalendar) NextOpen(t time.Time) time.Time {
	lt := t.In(tc.loc)
	for {
		open := time.Date(lt.Year(), lt.Month(), lt.Day(), 9, 30, 0, 0, tc.loc)
		if lt.Weekday() != time.Saturday && lt.Weekday() != time.Sunday && !open.Before(lt) {
			return open
		}
		lt = time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, tc.loc).AddDate(0, 0, 1)
	}
}
