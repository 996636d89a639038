package syncer

import (
	"context"
	"fmt"
	"slices"

	journey "github.com/etnz/cryptojourney"
	"github.com/shopspring/decimal"
)

// what a mutation changed.
type change struct{ entries, snapshots, rate bool }

// mutate applies fn to a copy of the state, commits it, persists it and marks
// it dirty, then signals the worker.
//
// A storage failure is returned, but the change is kept in memory and will be
// pushed anyway.
func (o *Orchestrator) mutate(ctx context.Context, fn func(s *journey.State) (change, error)) error {
	o.mu.Lock()
	next := o.state.Clone()
	c, err := fn(&next)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	next.Sort()
	o.state = next
	o.gen++
	o.dirty = true
	err = o.persist(ctx, next, c.entries, c.snapshots, c.rate)
	o.mu.Unlock()

	o.metrics.setDirty(true)
	if err != nil {
		o.notifier.Notify(Notice{Level: Error, Message: "cannot save locally", Err: err})
	}
	o.Kick()
	return err
}

// AddEntry adds e to the ledger and returns it. Its ID is changed if already
// taken.
func (o *Orchestrator) AddEntry(ctx context.Context, e journey.LedgerEntry) (journey.LedgerEntry, error) {
	err := o.mutate(ctx, func(s *journey.State) (change, error) {
		for journey.EntryByID(s.Entries, e.ID) >= 0 {
			e.ID++
		}
		s.Entries = append(s.Entries, e)
		return change{entries: true}, nil
	})
	return e, err
}

// DeleteEntry removes the entry id from the ledger.
func (o *Orchestrator) DeleteEntry(ctx context.Context, id int64) error {
	return o.mutate(ctx, func(s *journey.State) (change, error) {
		i := journey.EntryByID(s.Entries, id)
		if i < 0 {
			return change{}, fmt.Errorf("%w: no entry with id %d", journey.ErrValidation, id)
		}
		s.Entries = slices.Delete(s.Entries, i, i+1)
		return change{entries: true}, nil
	})
}

// UpsertSnapshot records snap, replacing any snapshot of the same day, and
// returns the stored snapshot.
func (o *Orchestrator) UpsertSnapshot(ctx context.Context, snap journey.AccountSnapshot) (journey.AccountSnapshot, error) {
	err := o.mutate(ctx, func(s *journey.State) (change, error) {
		s.Snapshots, _ = journey.UpsertSnapshot(s.Snapshots, snap)
		i := slices.IndexFunc(s.Snapshots, func(x journey.AccountSnapshot) bool { return x.Date == snap.Date })
		snap = s.Snapshots[i]
		return change{snapshots: true}, nil
	})
	return snap, err
}

// DeleteSnapshot removes the snapshot id.
func (o *Orchestrator) DeleteSnapshot(ctx context.Context, id int64) error {
	return o.mutate(ctx, func(s *journey.State) (change, error) {
		i := slices.IndexFunc(s.Snapshots, func(x journey.AccountSnapshot) bool { return x.ID == id })
		if i < 0 {
			return change{}, fmt.Errorf("%w: no snapshot with id %d", journey.ErrValidation, id)
		}
		s.Snapshots = slices.Delete(s.Snapshots, i, i+1)
		return change{snapshots: true}, nil
	})
}

// Clear removes every ledger entry. Snapshots are kept.
func (o *Orchestrator) Clear(ctx context.Context) error {
	return o.mutate(ctx, func(s *journey.State) (change, error) {
		s.Entries = []journey.LedgerEntry{}
		return change{entries: true}, nil
	})
}

// Import replaces the ledger with entries, and the rate with rate unless it is
// zero.
func (o *Orchestrator) Import(ctx context.Context, entries []journey.LedgerEntry, rate decimal.Decimal) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: nothing to import", journey.ErrValidation)
	}
	return o.mutate(ctx, func(s *journey.State) (change, error) {
		s.Entries = slices.Clone(entries)
		c := change{entries: true}
		if !rate.IsZero() {
			s.Rate = rate
			c.rate = true
		}
		return c, nil
	})
}

// SetRate changes the exchange rate.
func (o *Orchestrator) SetRate(ctx context.Context, rate decimal.Decimal) error {
	if err := journey.ValidateRate(rate); err != nil {
		return err
	}
	return o.mutate(ctx, func(s *journey.State) (change, error) {
		s.Rate = rate
		return change{rate: true}, nil
	})
}

// RefreshRate records a rate fetched from the rate service. Unlike SetRate it
// does not mark the state dirty: the new rate only travels with the next push.
func (o *Orchestrator) RefreshRate(ctx context.Context, rate decimal.Decimal) error {
	if err := journey.ValidateRate(rate); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Rate.Equal(rate) {
		return nil
	}
	o.state.Rate = rate
	return o.persist(ctx, o.state, false, false, true)
}
