package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Keys used in the backend.
const (
	KeyEntries   = "financeTrackerData"
	KeySnapshots = "cryptoAccountsData"
	KeyRate      = "financeTrackerRate"
	KeyRateCache = "financeTrackerRateCache"
	KeyToken     = "financeTrackerToken"
	KeyRemoteID  = "financeTrackerGistId"
	KeyDirty     = "financeTrackerNeedSync"
)

// RateCache is the last exchange rate fetched from the network.
type RateCache struct {
	Rate      decimal.Decimal
	Timestamp time.Time
}

// rateCache is the stored form of a RateCache, timestamps in milliseconds.
type rateCache struct {
	Rate      decimal.Decimal `json:"rate"`
	Timestamp int64           `json:"timestamp"`
}

// Store is the typed local storage of the tracker.
//
// Every Save returns once the backend has durably written the value. Failures
// are reported as journey.ErrStorage.
type Store struct {
	b   Backend
	log zerolog.Logger
}

// New returns a Store over b.
func New(b Backend, log zerolog.Logger) *Store {
	return &Store{b: b, log: log.With().Str("component", "store").Logger()}
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.b.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", journey.ErrStorage, err)
	}
	return v, true, nil
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	if err := s.b.Set(ctx, key, value); err != nil {
		return fmt.Errorf("%w: %w", journey.ErrStorage, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	if err := s.b.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", journey.ErrStorage, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	content, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: cannot encode %s: %w", journey.ErrStorage, key, err)
	}
	return s.set(ctx, key, content)
}

// getJSON decodes key into v. A corrupt value is logged and reported as absent.
func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	content, ok, err := s.get(ctx, key)
	if !ok || err != nil {
		return false, err
	}
	if err := json.Unmarshal(content, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("ignoring corrupt stored value")
		return false, nil
	}
	return true, nil
}

// Entries returns the stored ledger entries, sorted.
func (s *Store) Entries(ctx context.Context) ([]journey.LedgerEntry, error) {
	var entries []journey.LedgerEntry
	if ok, err := s.getJSON(ctx, KeyEntries, &entries); !ok {
		return []journey.LedgerEntry{}, err
	}
	journey.SortEntries(entries)
	return entries, nil
}

// SaveEntries replaces the stored ledger entries.
func (s *Store) SaveEntries(ctx context.Context, entries []journey.LedgerEntry) error {
	if entries == nil {
		entries = []journey.LedgerEntry{}
	}
	return s.setJSON(ctx, KeyEntries, entries)
}

// Snapshots returns the stored account snapshots, sorted.
func (s *Store) Snapshots(ctx context.Context) ([]journey.AccountSnapshot, error) {
	var snapshots []journey.AccountSnapshot
	if ok, err := s.getJSON(ctx, KeySnapshots, &snapshots); !ok {
		return []journey.AccountSnapshot{}, err
	}
	journey.SortSnapshots(snapshots)
	return snapshots, nil
}

// SaveSnapshots replaces the stored account snapshots.
func (s *Store) SaveSnapshots(ctx context.Context, snapshots []journey.AccountSnapshot) error {
	if snapshots == nil {
		snapshots = []journey.AccountSnapshot{}
	}
	return s.setJSON(ctx, KeySnapshots, snapshots)
}

// Rate returns the stored exchange rate, or journey.DefaultRate.
func (s *Store) Rate(ctx context.Context) (decimal.Decimal, error) {
	content, ok, err := s.get(ctx, KeyRate)
	if !ok || err != nil {
		return journey.DefaultRate, err
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(string(content)))
	if err != nil || journey.ValidateRate(rate) != nil {
		s.log.Warn().Str("key", KeyRate).Bytes("value", content).Msg("ignoring invalid stored rate")
		return journey.DefaultRate, nil
	}
	return rate, nil
}

// SaveRate stores the exchange rate.
func (s *Store) SaveRate(ctx context.Context, rate decimal.Decimal) error {
	return s.set(ctx, KeyRate, []byte(rate.String()))
}

// RateCache returns the cached network rate, if any.
func (s *Store) RateCache(ctx context.Context) (RateCache, bool, error) {
	var rc rateCache
	if ok, err := s.getJSON(ctx, KeyRateCache, &rc); !ok {
		return RateCache{}, false, err
	}
	return RateCache{Rate: rc.Rate, Timestamp: time.UnixMilli(rc.Timestamp).UTC()}, true, nil
}

// SaveRateCache stores a network rate and the time it was fetched.
func (s *Store) SaveRateCache(ctx context.Context, c RateCache) error {
	return s.setJSON(ctx, KeyRateCache, rateCache{Rate: c.Rate, Timestamp: c.Timestamp.UnixMilli()})
}

// Credential returns the stored remote credential, possibly unconfigured.
func (s *Store) Credential(ctx context.Context) (journey.Credential, error) {
	var c journey.Credential
	token, ok, err := s.get(ctx, KeyToken)
	if err != nil {
		return c, err
	}
	if ok {
		c.Token = journey.RevealToken(string(token))
	}
	id, ok, err := s.get(ctx, KeyRemoteID)
	if err != nil {
		return c, err
	}
	if ok {
		c.RemoteID = strings.TrimSpace(string(id))
	}
	return c, nil
}

// SaveCredential stores c. Empty fields are removed from the store.
func (s *Store) SaveCredential(ctx context.Context, c journey.Credential) error {
	var err error
	if c.Token == "" {
		err = s.delete(ctx, KeyToken)
	} else {
		err = s.set(ctx, KeyToken, []byte(journey.ObfuscateToken(c.Token)))
	}
	if err != nil {
		return err
	}
	if c.RemoteID == "" {
		return s.delete(ctx, KeyRemoteID)
	}
	return s.set(ctx, KeyRemoteID, []byte(c.RemoteID))
}

// Dirty reports whether local changes have not been pushed yet.
func (s *Store) Dirty(ctx context.Context) (bool, error) {
	v, ok, err := s.get(ctx, KeyDirty)
	return ok && string(v) == "true", err
}

// MarkDirty records that local changes need to be pushed.
func (s *Store) MarkDirty(ctx context.Context) error {
	return s.set(ctx, KeyDirty, []byte("true"))
}

// ClearDirty records that the remote copy is up to date.
func (s *Store) ClearDirty(ctx context.Context) error {
	return s.delete(ctx, KeyDirty)
}

// Load reads the whole tracker state.
func (s *Store) Load(ctx context.Context) (journey.State, error) {
	var st journey.State
	var err error
	if st.Entries, err = s.Entries(ctx); err != nil {
		return st, err
	}
	if st.Snapshots, err = s.Snapshots(ctx); err != nil {
		return st, err
	}
	st.Rate, err = s.Rate(ctx)
	return st, err
}
