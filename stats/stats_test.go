package stats

import (
	"testing"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(day string, pnl string) journey.LedgerEntry {
	return journey.LedgerEntry{Date: date.MustParse(day), PnL: decimal.RequireFromString(pnl)}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: got %s want %s", msg, got, want)
}

func TestCompute_TotalAndToday(t *testing.T) {
	entries := []journey.LedgerEntry{entry("2024-01-01", "100"), entry("2024-01-02", "-50")}

	s := Compute(entries, date.MustParse("2024-01-02"))

	assertDec(t, "50", s.Total, "total")
	assertDec(t, "-50", s.Today, "today")
	assertDec(t, "25", s.LifetimeAverage, "lifetime average")
	assert.Equal(t, 2, s.Days)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, date.MustParse("2024-01-02"))
	for name, v := range map[string]decimal.Decimal{
		"today": s.Today, "total": s.Total, "month": s.MonthTotal,
		"week average": s.WeekAverage, "month average": s.MonthAverage, "lifetime": s.LifetimeAverage,
	} {
		assert.True(t, v.IsZero(), "%s is %s", name, v)
	}
	assert.Zero(t, s.Days)
}

func TestCompute_Averages(t *testing.T) {
	// 2025-09-10 is a Wednesday: the week started on Sunday 2025-09-07.
	today := date.MustParse("2025-09-10")
	entries := []journey.LedgerEntry{
		entry("2025-08-31", "1000"), // previous month, previous week
		entry("2025-09-06", "10"),   // this month, previous week
		entry("2025-09-07", "20"),   // sunday
		entry("2025-09-09", "4"),
		entry("2025-09-10", "-4"),
		entry("2025-09-11", "500"), // tomorrow
	}

	s := Compute(entries, today)

	assertDec(t, "20", s.WeekTotal, "week total")
	assertDec(t, "5", s.WeekAverage, "week average")
	assertDec(t, "30", s.MonthTotal, "month total")
	assertDec(t, "3", s.MonthAverage, "month average")
	assertDec(t, "1530", s.Total, "total")
	assert.Equal(t, 11, s.Days)
}

func TestCompute_Sunday(t *testing.T) {
	today := date.MustParse("2025-09-07")
	s := Compute([]journey.LedgerEntry{entry("2025-09-07", "7"), entry("2025-09-06", "100")}, today)
	assertDec(t, "7", s.WeekAverage, "a sunday is the first day of its week")
}

func TestCompute_FutureOnly(t *testing.T) {
	s := Compute([]journey.LedgerEntry{entry("2024-02-01", "10")}, date.MustParse("2024-01-02"))
	assert.Equal(t, 1, s.Days)
	assertDec(t, "10", s.LifetimeAverage, "lifetime average")
}

func TestConvert(t *testing.T) {
	amount := decimal.RequireFromString("10.5")
	rate := decimal.RequireFromString("7.2")
	assertDec(t, "75.6", Convert(amount, rate), "converted")
	assertDec(t, "10.5", amount, "input is unchanged")
}

func TestDailyTotals(t *testing.T) {
	got := DailyTotals([]journey.LedgerEntry{
		entry("2024-01-02", "5"),
		entry("2024-01-01", "1"),
		entry("2024-01-02", "-2"),
	})
	require.Len(t, got, 2)
	assert.Equal(t, date.MustParse("2024-01-01"), got[0].Date)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, date.MustParse("2024-01-02"), got[1].Date)
	assert.Equal(t, 2, got[1].Count)
	assertDec(t, "3", got[1].PnL, "grouped pnl")
}

func TestSeries(t *testing.T) {
	today := date.MustParse("2024-03-10")
	entries := []journey.LedgerEntry{entry("2024-03-10", "1"), entry("2024-03-04", "2"), entry("2024-03-03", "3")}

	week := Series(entries, today, Week)
	require.Len(t, week, 7)
	assert.Equal(t, date.MustParse("2024-03-04"), week[0].Date)
	assertDec(t, "2", week[0].PnL, "first day")
	assert.True(t, week[3].PnL.IsZero())
	assert.Equal(t, today, week[6].Date)

	month := Series(entries, today, Month)
	require.Len(t, month, 30)
	assert.Equal(t, today.Add(-29), month[0].Date)

	all := Series(entries, today, All)
	assert.Len(t, all, 3)
}

func TestSeries_AllIsBounded(t *testing.T) {
	start := date.MustParse("2024-01-01")
	var entries []journey.LedgerEntry
	for i := range 100 {
		entries = append(entries, journey.LedgerEntry{Date: start.Add(i), PnL: decimal.NewFromInt(1)})
	}
	all := Series(entries, start.Add(200), All)
	require.Len(t, all, 60)
	assert.Equal(t, start.Add(99), all[59].Date)
}

func TestLatestSnapshot(t *testing.T) {
	_, ok := LatestSnapshot(nil)
	assert.False(t, ok)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snapshots := []journey.AccountSnapshot{
		{ID: 1, Date: date.MustParse("2024-01-01"), CreatedAt: t0.Add(time.Hour)},
		{ID: 2, Date: date.MustParse("2024-01-03"), CreatedAt: t0},
		{ID: 3, Date: date.MustParse("2024-01-02"), CreatedAt: t0.Add(2 * time.Hour)},
	}
	got, ok := LatestSnapshot(snapshots)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.ID)
}
