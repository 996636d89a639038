package journey

import (
	"slices"
	"time"

	"github.com/etnz/cryptojourney/date"
	"github.com/shopspring/decimal"
)

// AccountSnapshot is the balance of the tracked accounts on a calendar day.
//
// There is at most one snapshot per day: submitting another one for the same
// date replaces it, keeping the original ID.
type AccountSnapshot struct {
	ID        int64           `json:"id"`
	Date      date.Date       `json:"date"`
	Binance   decimal.Decimal `json:"binance"`
	OKX       decimal.Decimal `json:"okx"`
	Wallet    decimal.Decimal `json:"wallet"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewSnapshot validates user input and creates a snapshot stamped at now.
func NewSnapshot(now time.Time, on date.Date, binance, okx, wallet decimal.Decimal) (AccountSnapshot, error) {
	if on.IsZero() {
		return AccountSnapshot{}, invalidf("a date is required")
	}
	for _, a := range []struct {
		name string
		v    decimal.Decimal
	}{{"binance", binance}, {"okx", okx}, {"wallet", wallet}} {
		if err := checkAmount(a.name, a.v); err != nil {
			return AccountSnapshot{}, err
		}
	}
	now = now.UTC().Truncate(time.Millisecond)
	return AccountSnapshot{
		ID:        now.UnixMilli(),
		Date:      on,
		Binance:   binance,
		OKX:       okx,
		Wallet:    wallet,
		Total:     binance.Add(okx).Add(wallet),
		CreatedAt: now,
	}, nil
}

// Equal reports whether s and x hold the same values.
func (s AccountSnapshot) Equal(x AccountSnapshot) bool {
	return s.ID == x.ID &&
		s.Date == x.Date &&
		s.Binance.Equal(x.Binance) &&
		s.OKX.Equal(x.OKX) &&
		s.Wallet.Equal(x.Wallet) &&
		s.Total.Equal(x.Total) &&
		s.CreatedAt.Equal(x.CreatedAt)
}

// SortSnapshots sorts snapshots newest day first.
func SortSnapshots(snapshots []AccountSnapshot) {
	slices.SortStableFunc(snapshots, func(a, b AccountSnapshot) int {
		return b.Date.Compare(a.Date)
	})
}

// UpsertSnapshot replaces the snapshot for s.Date, keeping its ID, or appends s.
// It reports whether a snapshot was replaced.
func UpsertSnapshot(snapshots []AccountSnapshot, s AccountSnapshot) ([]AccountSnapshot, bool) {
	i := slices.IndexFunc(snapshots, func(x AccountSnapshot) bool { return x.Date == s.Date })
	if i < 0 {
		return append(snapshots, s), false
	}
	s.ID = snapshots[i].ID
	snapshots[i] = s
	return snapshots, true
}
