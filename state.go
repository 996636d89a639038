package journey

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultRate is the USD to CNY rate used when nothing better is known.
var DefaultRate = decimal.RequireFromString("7.25")

// State is the working copy of the user's data.
type State struct {
	Entries   []LedgerEntry
	Snapshots []AccountSnapshot
	Rate      decimal.Decimal
}

// Clone returns a copy of s that shares nothing mutable with it.
func (s State) Clone() State {
	return State{
		Entries:   slices.Clone(s.Entries),
		Snapshots: slices.Clone(s.Snapshots),
		Rate:      s.Rate,
	}
}

// Sort puts both collections in their canonical order.
func (s *State) Sort() {
	SortEntries(s.Entries)
	SortSnapshots(s.Snapshots)
}
