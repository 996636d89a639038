// Package syncer keeps the local store and the remote copy converging.
//
// Every user change is applied to memory and to the local store first, and
// marked dirty. Pushes happen afterwards, in the background or on demand, and
// always send the full state. On startup the remote copy is fetched and merged
// into the local data.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/gist"
	"github.com/etnz/cryptojourney/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Remote is the remote copy of the state.
type Remote interface {
	Fetch(ctx context.Context) (*journey.Document, error)
	Push(ctx context.Context, doc *journey.Document) error
}

// RemoteFactory returns the Remote reached with a credential.
type RemoteFactory func(journey.Credential) Remote

// Phase is the state of the last synchronization.
type Phase int

const (
	Idle Phase = iota
	InFlight
	Success
	AuthError
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InFlight:
		return "in flight"
	case Success:
		return "synchronized"
	case AuthError:
		return "authentication error"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Status describes the last synchronization.
type Status struct {
	Phase Phase
	Err   error     // last error, if the last attempt failed
	At    time.Time // time of the last change of phase
}

// Orchestrator owns the in memory state, and synchronizes it with the local
// store and the remote copy.
type Orchestrator struct {
	st         *store.Store
	newRemote  RemoteFactory
	now        func() time.Time
	conn       Connectivity
	notifier   Notifier
	log        zerolog.Logger
	metrics    *Metrics
	interval   time.Duration
	focusDelay time.Duration
	session    journey.Credential // overrides the stored credential when configured

	loading singleflight.Group
	pushing atomic.Bool
	kick    chan struct{}

	mu     sync.Mutex // guards the fields below, and serializes store writes
	state  journey.State
	cred   journey.Credential
	dirty  bool
	gen    uint64 // incremented on every change of state
	status Status
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRemote sets how a Remote is built from a credential.
func WithRemote(f RemoteFactory) Option { return func(o *Orchestrator) { o.newRemote = f } }

// WithClock sets the clock.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithConnectivity sets how the worker checks it is online.
func WithConnectivity(c Connectivity) Option { return func(o *Orchestrator) { o.conn = c } }

// WithNotifier sets who receives user notices.
func WithNotifier(n Notifier) Option { return func(o *Orchestrator) { o.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(o *Orchestrator) { o.log = l } }

// WithMetrics sets the collectors to update.
func WithMetrics(m *Metrics) Option { return func(o *Orchestrator) { o.metrics = m } }

// WithInterval sets the period of the background check.
func WithInterval(d time.Duration) Option { return func(o *Orchestrator) { o.interval = d } }

// WithCredential sets a credential used instead of the stored one. It is
// never written to the store.
func WithCredential(c journey.Credential) Option {
	return func(o *Orchestrator) { o.session = c }
}

// WithFocusDelay sets how long the worker waits after EventFocus.
func WithFocusDelay(d time.Duration) Option { return func(o *Orchestrator) { o.focusDelay = d } }

// New returns an Orchestrator over st. Call Bootstrap before anything else.
func New(st *store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		st:         st,
		now:        time.Now,
		conn:       Always{},
		log:        zerolog.Nop(),
		interval:   time.Minute,
		focusDelay: time.Second,
		kick:       make(chan struct{}, 1),
		state:      journey.State{Rate: journey.DefaultRate},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With().Str("component", "syncer").Logger()
	if o.newRemote == nil {
		log := o.log
		o.newRemote = func(c journey.Credential) Remote {
			return gist.NewClient(c, gist.WithLogger(log))
		}
	}
	if o.notifier == nil {
		o.notifier = LogNotifier{o.log}
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	return o
}

// State returns a copy of the current state.
func (o *Orchestrator) State() journey.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Dirty reports whether some changes have not been pushed yet.
func (o *Orchestrator) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dirty
}

// Credential returns the credential in use.
func (o *Orchestrator) Credential() journey.Credential {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cred
}

// Status returns the status of the last synchronization.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) setStatus(p Phase, err error) {
	o.mu.Lock()
	o.status = Status{Phase: p, Err: err, At: o.now()}
	o.mu.Unlock()
}

// Bootstrap loads the local store, then merges the remote copy into it.
//
// Concurrent calls share the same load. When the remote cannot be fetched the
// local data is kept and the failure is notified; only local storage failures
// are returned. If the merge produced records the remote does not have, a push
// is requested.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	_, err, _ := o.loading.Do("bootstrap", func() (any, error) {
		return nil, o.bootstrap(ctx)
	})
	return err
}

func (o *Orchestrator) bootstrap(ctx context.Context) error {
	local, err := o.st.Load(ctx)
	if err != nil {
		return err
	}
	cred, err := o.st.Credential(ctx)
	if err != nil {
		return err
	}
	dirty, err := o.st.Dirty(ctx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	if o.session.Configured() {
		cred = o.session
	}
	o.state, o.cred, o.dirty = local, cred, dirty
	o.gen++
	o.mu.Unlock()
	o.metrics.setDirty(dirty)
	o.log.Debug().Int("entries", len(local.Entries)).Int("snapshots", len(local.Snapshots)).Bool("dirty", dirty).Msg("loaded local data")

	if !cred.Configured() {
		o.log.Info().Msg("remote sync not configured, working locally")
		return nil
	}

	o.setStatus(InFlight, nil)
	doc, err := o.newRemote(cred).Fetch(ctx)
	if err != nil {
		o.failed(err, "cannot load remote data, using local data")
		return nil
	}

	o.mu.Lock()
	merged := journey.State{
		Entries:   journey.MergeEntries(o.state.Entries, doc.Entries),
		Snapshots: journey.MergeSnapshots(o.state.Snapshots, doc.AccountEntries),
		Rate:      o.state.Rate,
	}
	merged.Sort()
	o.state = merged
	o.gen++
	ahead := len(merged.Entries) > len(doc.Entries) || len(merged.Snapshots) > len(doc.AccountEntries)
	if ahead {
		o.dirty = true
	}
	err = o.persist(ctx, merged, true, true, false)
	o.mu.Unlock()

	o.metrics.MergeRecords.WithLabelValues("entries").Set(float64(len(merged.Entries)))
	o.metrics.MergeRecords.WithLabelValues("snapshots").Set(float64(len(merged.Snapshots)))
	o.log.Info().Int("remote", len(doc.Entries)).Int("merged", len(merged.Entries)).Msg("merged remote data")
	if err != nil {
		o.setStatus(Failed, err)
		o.notifier.Notify(Notice{Level: Error, Message: "cannot save merged data locally", Err: err})
	} else {
		o.setStatus(Success, nil)
	}
	if ahead {
		o.metrics.setDirty(true)
		o.notifier.Notify(Notice{Level: Info, Message: "local changes will be pushed"})
		o.Kick()
	}
	return err
}

// persist writes s to the store. It must be called with o.mu held.
func (o *Orchestrator) persist(ctx context.Context, s journey.State, entries, snapshots, rate bool) error {
	if entries {
		if err := o.st.SaveEntries(ctx, s.Entries); err != nil {
			return err
		}
	}
	if snapshots {
		if err := o.st.SaveSnapshots(ctx, s.Snapshots); err != nil {
			return err
		}
	}
	if rate {
		if err := o.st.SaveRate(ctx, s.Rate); err != nil {
			return err
		}
	}
	if o.dirty {
		return o.st.MarkDirty(ctx)
	}
	return nil
}

// Configure validates and stores a new credential, then bootstraps again.
func (o *Orchestrator) Configure(ctx context.Context, cred journey.Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	if err := o.st.SaveCredential(ctx, cred); err != nil {
		return err
	}
	o.mu.Lock()
	o.session = journey.Credential{}
	o.mu.Unlock()
	o.log.Info().Str("remote", cred.RemoteID).Msg("remote sync configured")
	return o.Bootstrap(ctx)
}

// Unconfigure forgets the credential. The data is kept, and stays local.
func (o *Orchestrator) Unconfigure(ctx context.Context) error {
	if err := o.st.SaveCredential(ctx, journey.Credential{}); err != nil {
		return err
	}
	o.mu.Lock()
	o.cred, o.session = journey.Credential{}, journey.Credential{}
	o.status = Status{Phase: Idle, At: o.now()}
	o.mu.Unlock()
	o.log.Info().Msg("remote sync removed")
	return nil
}
