package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/date"
	"github.com/etnz/cryptojourney/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	t0        = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	validCred = journey.Credential{Token: "ghp_testtoken123", RemoteID: "0123456789abcdef0123456789abcdef"}
)

// fakeRemote is an in memory Remote. Setting gate makes Push wait for it to be
// closed, after signaling started.
type fakeRemote struct {
	mu       sync.Mutex
	doc      *journey.Document
	fetchErr error
	pushErr  error
	fetches  int
	pushed   []*journey.Document

	gate    chan struct{}
	started chan struct{}
}

func (r *fakeRemote) Fetch(ctx context.Context) (*journey.Document, error) {
	r.mu.Lock()
	r.fetches++
	doc, err, gate, started := r.doc, r.fetchErr, r.gate, r.started
	r.mu.Unlock()
	if gate != nil {
		started <- struct{}{}
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &journey.Document{}
	}
	return doc, nil
}

func (r *fakeRemote) Push(ctx context.Context, doc *journey.Document) error {
	r.mu.Lock()
	gate, started := r.gate, r.started
	r.mu.Unlock()
	if gate != nil {
		started <- struct{}{}
		<-gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pushErr != nil {
		return r.pushErr
	}
	r.pushed = append(r.pushed, doc)
	return nil
}

func (r *fakeRemote) hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
	r.started = make(chan struct{}, 8)
}

func (r *fakeRemote) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.gate)
	r.gate = nil
}

func (r *fakeRemote) pushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushed)
}

// notices records notices.
type notices struct {
	mu   sync.Mutex
	list []Notice
}

func (n *notices) Notify(x Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, x)
}

func (n *notices) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.list...)
}

type fixture struct {
	o       *Orchestrator
	st      *store.Store
	remote  *fakeRemote
	notices *notices
}

// setup returns a fresh orchestrator over an in memory store. The store is
// configured with validCred if configured is true. prepare can populate the
// store before Bootstrap.
func setup(t *testing.T, configured bool, prepare func(st *store.Store), opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		st:      store.New(store.NewMemory(), zerolog.Nop()),
		remote:  &fakeRemote{},
		notices: &notices{},
	}
	if configured {
		require.NoError(t, f.st.SaveCredential(ctx, validCred))
	}
	if prepare != nil {
		prepare(f.st)
	}
	opts = append([]Option{
		WithRemote(func(journey.Credential) Remote { return f.remote }),
		WithClock(func() time.Time { return t0 }),
		WithNotifier(f.notices),
	}, opts...)
	f.o = New(f.st, opts...)
	return f
}

func (f *fixture) bootstrap(t *testing.T) {
	t.Helper()
	require.NoError(t, f.o.Bootstrap(context.Background()))
}

func entry(id int64, day string, pnl int64, note string) journey.LedgerEntry {
	p := decimal.NewFromInt(pnl)
	return journey.LedgerEntry{
		ID:        id,
		Date:      date.MustParse(day),
		Profit:    p,
		Loss:      decimal.Zero,
		PnL:       p,
		Note:      note,
		CreatedAt: time.UnixMilli(id).UTC(),
	}
}

func snapshot(id int64, day string, total int64, createdAt time.Time) journey.AccountSnapshot {
	v := decimal.NewFromInt(total)
	return journey.AccountSnapshot{ID: id, Date: date.MustParse(day), Binance: v, OKX: decimal.Zero, Wallet: decimal.Zero, Total: v, CreatedAt: createdAt}
}

// kicked reports and consumes a pending kick.
func (f *fixture) kicked() bool {
	select {
	case <-f.o.kick:
		return true
	default:
		return false
	}
}
