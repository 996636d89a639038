package journey

import (
	"slices"
	"time"

	"github.com/etnz/cryptojourney/date"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one profit/loss record for a calendar day.
//
// Entries are immutable: an edit is a delete followed by a new entry. The ID is
// the creation timestamp in milliseconds and identifies the entry across devices.
type LedgerEntry struct {
	ID        int64           `json:"id"`
	Date      date.Date       `json:"date"`
	Profit    decimal.Decimal `json:"profit"`
	Loss      decimal.Decimal `json:"loss"`
	PnL       decimal.Decimal `json:"pnl"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEntry validates user input and creates a ledger entry stamped at now.
func NewEntry(now time.Time, on date.Date, profit, loss decimal.Decimal, note string) (LedgerEntry, error) {
	if on.IsZero() {
		return LedgerEntry{}, invalidf("a date is required")
	}
	if err := checkAmount("profit", profit); err != nil {
		return LedgerEntry{}, err
	}
	if err := checkAmount("loss", loss); err != nil {
		return LedgerEntry{}, err
	}
	if profit.IsZero() && loss.IsZero() {
		return LedgerEntry{}, invalidf("either a profit or a loss is required")
	}
	now = now.UTC().Truncate(time.Millisecond)
	return LedgerEntry{
		ID:        now.UnixMilli(),
		Date:      on,
		Profit:    profit,
		Loss:      loss,
		PnL:       profit.Sub(loss),
		Note:      SanitizeNote(note),
		CreatedAt: now,
	}, nil
}

func checkAmount(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalidf("%s must not be negative, got %s", name, d)
	}
	if d.GreaterThan(MaxAmount) {
		return invalidf("%s must not exceed %s, got %s", name, MaxAmount, d)
	}
	return nil
}

// Equal reports whether e and x hold the same values.
func (e LedgerEntry) Equal(x LedgerEntry) bool {
	return e.ID == x.ID &&
		e.Date == x.Date &&
		e.Profit.Equal(x.Profit) &&
		e.Loss.Equal(x.Loss) &&
		e.PnL.Equal(x.PnL) &&
		e.Note == x.Note &&
		e.CreatedAt.Equal(x.CreatedAt)
}

// SortEntries sorts entries newest day first, and within a day newest first.
func SortEntries(entries []LedgerEntry) {
	slices.SortStableFunc(entries, func(a, b LedgerEntry) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// EntryByID returns the index of the entry with that id, or -1.
func EntryByID(entries []LedgerEntry, id int64) int {
	return slices.IndexFunc(entries, func(e LedgerEntry) bool { return e.ID == id })
}

// EarliestDate returns the oldest entry date, false if there is none.
func EarliestDate(entries []LedgerEntry) (date.Date, bool) {
	if len(entries) == 0 {
		return date.Date{}, false
	}
	earliest := slices.MinFunc(entries, func(a, b LedgerEntry) int {
		return a.Date.Compare(b.Date)
	})
	return earliest.Date, true
}
