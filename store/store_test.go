package store

import (
	"context"
	"errors"
	"testing"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func testStore(t *testing.T) (*Store, *Memory) {
	t.Helper()
	m := NewMemory()
	return New(m, zerolog.Nop()), m
}

// failing is a Backend where every write fails.
type failing struct{ *Memory }

func (failing) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (failing) Delete(context.Context, string) error      { return errors.New("disk full") }

func TestStore_Entries(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore(t)

	got, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	e1, err := journey.NewEntry(t0, date.New(2024, 1, 1), decimal.NewFromInt(10), decimal.Zero, "first")
	require.NoError(t, err)
	e2, err := journey.NewEntry(t0.Add(time.Second), date.New(2024, 1, 2), decimal.Zero, decimal.NewFromInt(4), "second")
	require.NoError(t, err)

	require.NoError(t, s.SaveEntries(ctx, []journey.LedgerEntry{e1, e2}))

	got, err = s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(e2), "entries are sorted most recent first")
	assert.True(t, got[1].Equal(e1))
}

func TestStore_CorruptValues(t *testing.T) {
	ctx := context.Background()
	s, m := testStore(t)
	require.NoError(t, m.Set(ctx, KeyEntries, []byte("{not json")))
	require.NoError(t, m.Set(ctx, KeySnapshots, []byte(`"nope"`)))
	require.NoError(t, m.Set(ctx, KeyRate, []byte("abc")))

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	snapshots, err := s.Snapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	rate, err := s.Rate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(journey.DefaultRate))
}

func TestStore_Rate(t *testing.T) {
	ctx := context.Background()
	s, m := testStore(t)

	rate, err := s.Rate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(journey.DefaultRate))

	require.NoError(t, s.SaveRate(ctx, decimal.RequireFromString("7.1834")))
	raw, err := m.Get(ctx, KeyRate)
	require.NoError(t, err)
	assert.Equal(t, "7.1834", string(raw))

	rate, err = s.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7.1834", rate.String())
}

func TestStore_RateCache(t *testing.T) {
	ctx := context.Background()
	s, m := testStore(t)

	_, ok, err := s.RateCache(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveRateCache(ctx, RateCache{Rate: decimal.RequireFromString("7.2"), Timestamp: t0}))
	raw, err := m.Get(ctx, KeyRateCache)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":7.2,"timestamp":1704187800000}`, string(raw))

	rc, ok, err := s.RateCache(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rc.Timestamp.Equal(t0))
	assert.Equal(t, "7.2", rc.Rate.String())
}

func TestStore_Credential(t *testing.T) {
	ctx := context.Background()
	s, m := testStore(t)

	c, err := s.Credential(ctx)
	require.NoError(t, err)
	assert.False(t, c.Configured())

	want := journey.Credential{Token: "ghp_secret123", RemoteID: "0123456789abcdef0123456789abcdef"}
	require.NoError(t, s.SaveCredential(ctx, want))

	raw, err := m.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret", "token is not stored in clear")

	c, err = s.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, c)

	require.NoError(t, s.SaveCredential(ctx, journey.Credential{}))
	assert.Empty(t, m.Keys())
}

func TestStore_Dirty(t *testing.T) {
	ctx := context.Background()
	s, m := testStore(t)

	dirty, err := s.Dirty(ctx)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, s.MarkDirty(ctx))
	raw, err := m.Get(ctx, KeyDirty)
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	dirty, err = s.Dirty(ctx)
	require.NoError(t, err)
	assert.True(t, dirty)

	require.NoError(t, s.ClearDirty(ctx))
	_, err = m.Get(ctx, KeyDirty)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_WriteFailure(t *testing.T) {
	ctx := context.Background()
	s := New(failing{NewMemory()}, zerolog.Nop())

	assert.ErrorIs(t, s.SaveEntries(ctx, nil), journey.ErrStorage)
	assert.ErrorIs(t, s.MarkDirty(ctx), journey.ErrStorage)
	assert.ErrorIs(t, s.ClearDirty(ctx), journey.ErrStorage)
	assert.ErrorIs(t, s.SaveCredential(ctx, journey.Credential{}), journey.ErrStorage)
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore(t)

	snap, err := journey.NewSnapshot(t0, date.New(2024, 1, 1), decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3))
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshots(ctx, []journey.AccountSnapshot{snap}))
	require.NoError(t, s.SaveRate(ctx, decimal.NewFromInt(7)))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Entries)
	require.Len(t, st.Snapshots, 1)
	assert.True(t, st.Snapshots[0].Equal(snap))
	assert.Equal(t, "7", st.Rate.String())
}
