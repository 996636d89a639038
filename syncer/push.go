package syncer

import (
	"context"
	"errors"
	"time"

	journey "github.com/etnz/cryptojourney"
)

// ErrPushInFlight is returned by Push while another push is running.
var ErrPushInFlight = errors.New("a push is already in flight")

// Push sends the full state to the remote copy.
//
// It does nothing without a credential. The dirty mark is cleared only if the
// state did not change while the push was running. Failures keep the mark, are
// notified and returned.
func (o *Orchestrator) Push(ctx context.Context) error {
	if !o.pushing.CompareAndSwap(false, true) {
		return ErrPushInFlight
	}
	defer o.pushing.Store(false)

	o.mu.Lock()
	cred := o.cred
	if !cred.Configured() {
		o.mu.Unlock()
		return nil
	}
	state := o.state.Clone()
	gen := o.gen
	o.status = Status{Phase: InFlight, At: o.now()}
	o.mu.Unlock()

	start := time.Now()
	err := o.newRemote(cred).Push(ctx, journey.NewDocument(state, o.now()))
	o.metrics.PushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, journey.ErrAuth) {
			o.metrics.Pushes.WithLabelValues("auth").Inc()
		} else {
			o.metrics.Pushes.WithLabelValues("failed").Inc()
		}
		o.failed(err, "cannot push changes")
		return err
	}
	o.metrics.Pushes.WithLabelValues("success").Inc()

	o.mu.Lock()
	o.status = Status{Phase: Success, At: o.now()}
	cleared := o.gen == gen
	if cleared {
		o.dirty = false
		err = o.st.ClearDirty(ctx)
	}
	o.mu.Unlock()

	if cleared {
		o.metrics.setDirty(false)
		o.log.Info().Int("entries", len(state.Entries)).Int("snapshots", len(state.Snapshots)).Msg("pushed")
	} else {
		o.log.Debug().Msg("state changed during push, still dirty")
		o.Kick()
	}
	return err
}

// failed records and notifies a failed synchronization.
func (o *Orchestrator) failed(err error, msg string) {
	phase := Failed
	if errors.Is(err, journey.ErrAuth) {
		phase = AuthError
		msg += ": the token is invalid or expired"
	}
	o.setStatus(phase, err)
	o.notifier.Notify(Notice{Level: Warning, Message: msg, Err: err})
}

// Kick asks the worker to push soon. It never blocks; kicks coalesce.
func (o *Orchestrator) Kick() {
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Run is the background worker. It pushes dirty changes on every kick, every
// interval, and on outside events, until ctx is done.
//
// Timer and focus triggers check connectivity first, an online event does not.
// A focus event is acted upon after the focus delay.
func (o *Orchestrator) Run(ctx context.Context, events <-chan Event) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	var focus <-chan time.Time
	for {
		probe := true
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.kick:
			probe = false
		case <-ticker.C:
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			o.log.Debug().Stringer("event", ev).Msg("received event")
			if ev == EventFocus {
				focus = time.After(o.focusDelay)
				continue
			}
			probe = false
		case <-focus:
			focus = nil
		}
		o.trigger(ctx, probe)
	}
}

func (o *Orchestrator) trigger(ctx context.Context, probe bool) {
	if !o.Dirty() {
		return
	}
	if probe && !o.conn.Online(ctx) {
		o.log.Debug().Msg("offline, push postponed")
		return
	}
	err := o.Push(ctx)
	if errors.Is(err, ErrPushInFlight) {
		o.log.Debug().Msg("push already in flight")
	}
}
