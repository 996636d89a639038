package renderer

import (
	"slices"
	"strings"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/date"
	"github.com/etnz/cryptojourney/stats"
	"github.com/shopspring/decimal"
)

// Summary is the data of the summary view.
type Summary struct {
	Today  date.Date
	Rate   decimal.Decimal
	Stats  stats.Summary
	Latest *journey.AccountSnapshot // most recent account snapshot, if any
	Sync   string                   // synchronization status, empty when not configured
	Dirty  bool
}

// RenderSummary renders the headline figures.
func RenderSummary(s *Summary) string {
	partials := map[string]string{
		"summary_stats":   "summary_stats.md",
		"summary_account": "",
	}
	if s.Latest != nil {
		partials["summary_account"] = "summary_account.md"
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// Day is a group of entries of the same day.
type Day struct {
	Date    date.Date
	Total   decimal.Decimal
	Rate    decimal.Decimal
	Entries []journey.LedgerEntry
}

// History is the data of the history view.
type History struct {
	Month string // YYYY-MM filter, empty for all
	Rate  decimal.Decimal
	Days  []Day
	More  int // days with entries not shown
}

// NewHistory groups entries by day, most recent day first, keeping at most
// limit days. Only entries whose date starts with month are kept.
func NewHistory(entries []journey.LedgerEntry, month string, limit int, rate decimal.Decimal) *History {
	h := &History{Month: month, Rate: rate}
	byDay := make(map[date.Date]*Day)
	for _, e := range entries {
		if month != "" && !strings.HasPrefix(e.Date.String(), month) {
			continue
		}
		d, ok := byDay[e.Date]
		if !ok {
			d = &Day{Date: e.Date, Rate: rate}
			byDay[e.Date] = d
		}
		d.Total = d.Total.Add(e.PnL)
		d.Entries = append(d.Entries, e)
	}
	for _, d := range byDay {
		journey.SortEntries(d.Entries)
		h.Days = append(h.Days, *d)
	}
	slices.SortFunc(h.Days, func(a, b Day) int { return b.Date.Compare(a.Date) })
	if limit > 0 && len(h.Days) > limit {
		h.More = len(h.Days) - limit
		h.Days = h.Days[:limit]
	}
	return h
}

// RenderHistory renders the ledger grouped by day.
func RenderHistory(h *History) string {
	return renderTemplate("history", "history.md", map[string]string{"history_day": "history_day.md"}, h)
}

// Accounts is the data of the accounts view.
type Accounts struct {
	Rate      decimal.Decimal
	Snapshots []journey.AccountSnapshot
}

// RenderAccounts renders the account snapshots, most recent first.
func RenderAccounts(a *Accounts) string {
	return renderTemplate("accounts", "accounts.md", nil, a)
}

// Chart is the data of the chart view.
type Chart struct {
	Window stats.Window
	Rate   decimal.Decimal
	Series []stats.DailyTotal
	Max    decimal.Decimal // largest absolute daily total
	Total  decimal.Decimal
}

// NewChart computes the chart of window as seen on today.
func NewChart(entries []journey.LedgerEntry, today date.Date, window stats.Window, rate decimal.Decimal) *Chart {
	c := &Chart{Window: window, Rate: rate, Series: stats.Series(entries, today, window)}
	for _, t := range c.Series {
		c.Total = c.Total.Add(t.PnL)
		if t.PnL.Abs().GreaterThan(c.Max) {
			c.Max = t.PnL.Abs()
		}
	}
	return c
}

// RenderChart renders daily totals as a table with bars.
func RenderChart(c *Chart) string {
	return renderTemplate("chart", "chart.md", nil, c)
}
