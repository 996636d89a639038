// Package cmd implements the cj command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/config"
	"github.com/etnz/cryptojourney/date"
	"github.com/etnz/cryptojourney/gist"
	"github.com/etnz/cryptojourney/rates"
	"github.com/etnz/cryptojourney/store"
	"github.com/etnz/cryptojourney/syncer"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "journal")
	c.Register(&rmCmd{}, "journal")
	c.Register(&historyCmd{}, "journal")
	c.Register(&statsCmd{}, "journal")

	c.Register(&accountCmd{}, "accounts")
	c.Register(&accountRmCmd{}, "accounts")
	c.Register(&accountsCmd{}, "accounts")

	c.Register(&rateCmd{}, "data")
	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&clearCmd{}, "data")

	c.Register(&configCmd{}, "sync")
	c.Register(&createGistCmd{}, "sync")
	c.Register(&syncCmd{}, "sync")
	c.Register(&pushCmd{}, "sync")
	c.Register(&statusCmd{}, "sync")
	c.Register(&watchCmd{}, "sync")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", "", "Path to the YAML configuration file. Defaults to "+config.DefaultPath()+" when it exists.")
	storeDir   = flag.String("store-dir", "", "Folder of the local store. Overrides the configuration.")
	Verbose    = flag.Bool("v", false, "Log debug messages, only warnings are logged otherwise.")
	raw        = flag.Bool("raw", false, "Print markdown as is instead of rendering it for the terminal.")
)

// EnvTestingNow, when set to "2006-01-02 15:04:05", freezes the clock.
const EnvTestingNow = "CJ_TESTING_NOW"

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func now() time.Time {
	if s := os.Getenv(EnvTestingNow); s != "" {
		if t, err := time.Parse(time.DateTime, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now()
}

func today() date.Date { return date.On(now()) }

// app is what a command works with: the settings, the local store, and the
// orchestrator bootstrapped over it.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *store.Store
	sync    *syncer.Orchestrator
	breaker *gobreaker.CircuitBreaker
	close   func() error
}

// loadConfig reads the settings and applies the command line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return cfg, err
	}
	if *storeDir != "" {
		cfg.StoreDir = *storeDir
		cfg.RedisAddr = ""
	}
	return cfg, nil
}

// openApp opens the local store and bootstraps the orchestrator. opts are
// added to the orchestrator options.
func openApp(ctx context.Context, opts ...syncer.Option) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		log:     log.Logger,
		breaker: gist.NewBreaker("gist"),
		close:   func() error { return nil },
	}

	var backend store.Backend
	if cfg.RedisAddr != "" {
		r, err := store.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		backend, a.close = r, r.Close
	} else {
		d, err := store.NewDir(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		backend = d
	}
	a.store = store.New(backend, a.log)

	limiter := gist.NewLimiter()
	all := []syncer.Option{
		syncer.WithLogger(a.log),
		syncer.WithClock(now),
		syncer.WithInterval(cfg.SyncInterval),
		syncer.WithFocusDelay(cfg.FocusDelay),
		syncer.WithCredential(cfg.Credential()),
		syncer.WithRemote(func(c journey.Credential) syncer.Remote {
			if cfg.Offline {
				return offline{}
			}
			return a.remote(c, gist.WithLimiter(limiter))
		}),
	}
	a.sync = syncer.New(a.store, append(all, opts...)...)
	if err := a.sync.Bootstrap(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// remote returns a gist client for c configured from the settings.
func (a *app) remote(c journey.Credential, opts ...gist.Option) *gist.Client {
	return gist.NewClient(c, append([]gist.Option{
		gist.WithBaseURL(a.cfg.APIBase),
		gist.WithTimeout(a.cfg.Timeout),
		gist.WithBackoff(a.cfg.Backoff),
		gist.WithMaxAttempts(a.cfg.MaxAttempts),
		gist.WithBreaker(a.breaker),
		gist.WithClock(now),
		gist.WithLogger(a.log),
	}, opts...)...)
}

// rate returns the exchange rate to display amounts in CNY.
func (a *app) rate(ctx context.Context) decimal.Decimal {
	var src rates.Source
	if !a.cfg.Offline && a.cfg.RateAPI != "" {
		src = rates.NewFetcher(a.cfg.RateAPI)
	}
	rate, err := rates.Resolve(ctx, a.store, src, now(), a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("cannot resolve the exchange rate")
		return a.sync.State().Rate
	}
	if err := a.sync.RefreshRate(ctx, rate); err != nil {
		a.log.Warn().Err(err).Stringer("rate", rate).Msg("cannot record the exchange rate")
	}
	return rate
}

// flush pushes pending changes, if any. A failed push is only reported: the
// changes are safe in the local store and will be pushed on a later run.
func (a *app) flush(ctx context.Context) {
	if !a.sync.Dirty() || !a.sync.Credential().Configured() || a.cfg.Offline {
		return
	}
	if err := a.sync.Push(ctx); err != nil {
		fmt.Fprintf(stderr, "Warning: changes saved locally but not pushed: %v\n", err)
	}
}

// done flushes and releases the app.
func (a *app) done(ctx context.Context) {
	a.flush(ctx)
	if err := a.close(); err != nil {
		a.log.Warn().Err(err).Msg("cannot close the store")
	}
}

// offline is the Remote used when the network must not be used.
type offline struct{}

func (offline) Fetch(context.Context) (*journey.Document, error) {
	return nil, fmt.Errorf("%w: offline", journey.ErrTransient)
}

func (offline) Push(context.Context, *journey.Document) error {
	return fmt.Errorf("%w: offline", journey.ErrTransient)
}

// fail prints err and returns the matching exit status.
func fail(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: %s: %v\n", msg, err)
	return subcommands.ExitFailure
}
