package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/cryptojourney/syncer"
	"github.com/google/subcommands"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// watchCmd holds the flags for the 'watch' subcommand.
type watchCmd struct {
	metrics string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "keep the gist in sync until interrupted" }
func (*watchCmd) Usage() string {
	return `cj watch [-metrics <addr>]

  Stays in the foreground and pushes pending changes every sync interval, and
  as soon as the network comes back. Pressing Enter checks at once. With
  -metrics, serves Prometheus metrics on /metrics and the sync status on
  /status.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.metrics, "metrics", "", "Address to serve metrics on, e.g. :9090.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if zerolog.GlobalLevel() > zerolog.InfoLevel {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fail("invalid configuration", err)
	}
	if cfg.Offline {
		return usage(errors.New("watch needs the network, unset offline"))
	}
	probe, err := probeFor(cfg.APIBase)
	if err != nil {
		return usage(err)
	}

	reg := prometheus.NewRegistry()
	a, err := openApp(ctx, syncer.WithMetrics(syncer.NewMetrics(reg)), syncer.WithConnectivity(probe))
	if err != nil {
		return fail("cannot open the journal", err)
	}
	defer a.done(context.Background())

	if !a.sync.Credential().Configured() {
		return fail("cannot watch", fmt.Errorf("sync is not configured, see 'cj topic sync'"))
	}

	if c.metrics != "" {
		srv := &http.Server{Addr: c.metrics, Handler: statusRouter(a.sync, reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer srv.Shutdown(context.Background())
		a.log.Info().Str("addr", c.metrics).Msg("serving metrics")
	}

	events := mergeEvents(ctx, syncer.WatchConnectivity(ctx, probe, cfg.SyncInterval), focusOnEnter(ctx))
	a.sync.Kick()
	a.log.Info().Dur("interval", cfg.SyncInterval).Msg("watching")
	if err := a.sync.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		return fail("watch stopped", err)
	}
	return subcommands.ExitSuccess
}

// statusRouter serves the metrics of reg and the status of o.
func statusRouter(o *syncer.Orchestrator, reg *prometheus.Registry) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		st := o.Status()
		state := o.State()
		resp := struct {
			Phase     string    `json:"phase"`
			Error     string    `json:"error,omitempty"`
			At        time.Time `json:"at"`
			Dirty     bool      `json:"dirty"`
			Entries   int       `json:"entries"`
			Snapshots int       `json:"snapshots"`
		}{
			Phase:     st.Phase.String(),
			At:        st.At,
			Dirty:     o.Dirty(),
			Entries:   len(state.Entries),
			Snapshots: len(state.Snapshots),
		}
		if st.Err != nil {
			resp.Error = st.Err.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}).Methods(http.MethodGet)
	return r
}

// probeFor returns a probe dialing the host of the API base URL.
func probeFor(apiBase string) (syncer.Probe, error) {
	u, err := url.Parse(apiBase)
	if err != nil || u.Host == "" {
		return syncer.Probe{}, fmt.Errorf("invalid api base %q", apiBase)
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return syncer.Probe{Addr: net.JoinHostPort(u.Hostname(), port), Timeout: syncer.DefaultProbe.Timeout}, nil
}

// focusOnEnter sends syncer.EventFocus for every line read on stdin.
func focusOnEnter(ctx context.Context) <-chan syncer.Event {
	events := make(chan syncer.Event)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case events <- syncer.EventFocus:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

// mergeEvents forwards the events of every input until they are all closed.
func mergeEvents(ctx context.Context, inputs ...<-chan syncer.Event) <-chan syncer.Event {
	out := make(chan syncer.Event)
	done := make(chan struct{})
	for _, in := range inputs {
		go func() {
			defer func() { done <- struct{}{} }()
			for ev := range in {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		for range inputs {
			<-done
		}
		close(out)
	}()
	return out
}
