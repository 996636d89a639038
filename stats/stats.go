// Package stats derives totals and averages from the ledger.
//
// Everything here is a pure function of the entries and the current day.
package stats

import (
	"maps"
	"slices"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/date"
	"github.com/shopspring/decimal"
)

// Summary holds the headline figures of the ledger, in USD.
type Summary struct {
	Today           decimal.Decimal // sum of today's entries
	Total           decimal.Decimal // sum of all entries
	MonthTotal      decimal.Decimal // month to date
	WeekTotal       decimal.Decimal // week to date
	WeekAverage     decimal.Decimal // week to date per elapsed day of the week
	MonthAverage    decimal.Decimal // month to date per elapsed day of the month
	LifetimeAverage decimal.Decimal // total per day since the first entry
	Days            int             // days since the first entry, today included
}

// Compute returns the summary of entries as seen on today.
//
// Weeks start on Sunday. Entries dated after today count in the total only.
func Compute(entries []journey.LedgerEntry, today date.Date) Summary {
	var s Summary
	week := date.ToDate(today, date.Weekly)
	month := date.ToDate(today, date.Monthly)
	for _, e := range entries {
		s.Total = s.Total.Add(e.PnL)
		if e.Date == today {
			s.Today = s.Today.Add(e.PnL)
		}
		if week.Contains(e.Date) {
			s.WeekTotal = s.WeekTotal.Add(e.PnL)
		}
		if month.Contains(e.Date) {
			s.MonthTotal = s.MonthTotal.Add(e.PnL)
		}
	}
	s.WeekAverage = s.WeekTotal.Div(decimal.NewFromInt(int64(today.WeekdayIndex() + 1)))
	s.MonthAverage = s.MonthTotal.Div(decimal.NewFromInt(int64(today.Day())))

	if first, ok := journey.EarliestDate(entries); ok {
		s.Days = max(date.DaysBetween(first, today)+1, 1)
		s.LifetimeAverage = s.Total.Div(decimal.NewFromInt(int64(s.Days)))
	}
	return s
}

// Convert returns amount expressed with rate.
func Convert(amount, rate decimal.Decimal) decimal.Decimal { return amount.Mul(rate) }

// DailyTotal is the sum of the entries of a single day.
type DailyTotal struct {
	Date  date.Date
	PnL   decimal.Decimal
	Count int
}

// DailyTotals groups entries by day, oldest day first.
func DailyTotals(entries []journey.LedgerEntry) []DailyTotal {
	byDay := make(map[date.Date]DailyTotal)
	for _, e := range entries {
		t := byDay[e.Date]
		t.Date = e.Date
		t.PnL = t.PnL.Add(e.PnL)
		t.Count++
		byDay[e.Date] = t
	}
	return slices.SortedFunc(maps.Values(byDay), func(a, b DailyTotal) int {
		return a.Date.Compare(b.Date)
	})
}

// Window selects the days shown in a Series.
type Window string

const (
	Week  Window = "week"  // the last 7 days
	Month Window = "month" // the last 30 days
	All   Window = "all"   // the last 60 days with entries
)

// maxAllDays bounds the All window.
const maxAllDays = 60

// Series returns the daily totals shown for window, oldest first.
//
// Week and Month list every day up to today, with zero for days without
// entries. All lists only the days with entries.
func Series(entries []journey.LedgerEntry, today date.Date, window Window) []DailyTotal {
	totals := DailyTotals(entries)
	var days int
	switch window {
	case Week:
		days = 7
	case Month:
		days = 30
	default:
		if len(totals) > maxAllDays {
			totals = totals[len(totals)-maxAllDays:]
		}
		return totals
	}

	byDay := make(map[date.Date]DailyTotal, len(totals))
	for _, t := range totals {
		byDay[t.Date] = t
	}
	series := make([]DailyTotal, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.Add(-i)
		t, ok := byDay[d]
		if !ok {
			t = DailyTotal{Date: d}
		}
		series = append(series, t)
	}
	return series
}

// LatestSnapshot returns the most recent snapshot, if any.
func LatestSnapshot(snapshots []journey.AccountSnapshot) (journey.AccountSnapshot, bool) {
	if len(snapshots) == 0 {
		return journey.AccountSnapshot{}, false
	}
	return slices.MaxFunc(snapshots, func(a, b journey.AccountSnapshot) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	}), true
}
