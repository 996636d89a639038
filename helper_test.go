package journey

import (
	"testing"
	"time"

	"github.com/etnz/cryptojourney/date"
	"github.com/shopspring/decimal"
)

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// entry builds a valid ledger entry without going through validation.
func entry(id int64, day string, profit, loss string, note string) LedgerEntry {
	p, l := dec(profit), dec(loss)
	return LedgerEntry{
		ID:        id,
		Date:      date.MustParse(day),
		Profit:    p,
		Loss:      l,
		PnL:       p.Sub(l),
		Note:      note,
		CreatedAt: time.UnixMilli(id).UTC(),
	}
}

func snapshot(id int64, day string, total string, createdAt time.Time) AccountSnapshot {
	return AccountSnapshot{
		ID:        id,
		Date:      date.MustParse(day),
		Binance:   dec(total),
		OKX:       decimal.Zero,
		Wallet:    decimal.Zero,
		Total:     dec(total),
		CreatedAt: createdAt,
	}
}

func assertEntries(t *testing.T, got, want []LedgerEntry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("entry[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
