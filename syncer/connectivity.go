package syncer

import (
	"context"
	"net"
	"time"
)

// Event is an outside signal the worker reacts to.
type Event int

const (
	// EventOnline is sent when the network comes back.
	EventOnline Event = iota
	// EventFocus is sent when the user comes back to the application.
	EventFocus
)

func (e Event) String() string {
	switch e {
	case EventOnline:
		return "online"
	case EventFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// Connectivity tells whether the remote is worth trying.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Always is a Connectivity that is always online.
type Always struct{}

func (Always) Online(context.Context) bool { return true }

// Probe is a Connectivity dialing a TCP address.
type Probe struct {
	Addr    string
	Timeout time.Duration
}

// DefaultProbe dials the GitHub API.
var DefaultProbe = Probe{Addr: "api.github.com:443", Timeout: 3 * time.Second}

func (p Probe) Online(ctx context.Context) bool {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WatchConnectivity checks c every period and sends EventOnline on the
// returned channel each time it goes from offline to online. The channel is
// closed when ctx is done.
func WatchConnectivity(ctx context.Context, c Connectivity, every time.Duration) <-chan Event {
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		online := c.Online(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			now := c.Online(ctx)
			if now && !online {
				select {
				case events <- EventOnline:
				default:
				}
			}
			online = now
		}
	}()
	return events
}
