// Package gist stores the tracker document in a private GitHub gist.
//
// The document lives in a single file of the gist. Every push rewrites the
// whole file, every fetch reads it back and repairs what it can.
package gist

import (
	"net/http"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Defaults for a Client.
const (
	DefaultBaseURL     = "https://api.github.com"
	DefaultFileName    = "finance-data.json"
	DefaultDescription = "Crypto Journey Data"
	DefaultTimeout     = 10 * time.Second
	DefaultBackoff     = time.Second
	DefaultMaxAttempts = 2
)

// Client talks to the gist API on behalf of a credential.
type Client struct {
	cred        journey.Credential
	baseURL     string
	fileName    string
	http        *http.Client
	timeout     time.Duration
	backoff     time.Duration
	maxAttempts int
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	log         zerolog.Logger
	now         func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL changes the API root, mostly for tests.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient sets the http client used for every request.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithBackoff sets the pause between two attempts.
func WithBackoff(d time.Duration) Option { return func(c *Client) { c.backoff = d } }

// WithMaxAttempts sets how many times a transient failure is attempted.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLimiter replaces the client side rate limiter.
func WithLimiter(l *rate.Limiter) Option { return func(c *Client) { c.limiter = l } }

// WithBreaker replaces the circuit breaker, so that it can be shared between
// clients.
func WithBreaker(b *gobreaker.CircuitBreaker) Option { return func(c *Client) { c.breaker = b } }

// WithFileName changes the name of the file holding the document.
func WithFileName(name string) Option { return func(c *Client) { c.fileName = name } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// WithClock sets the clock used to stamp repaired records.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// NewClient returns a client acting with cred.
func NewClient(cred journey.Credential, opts ...Option) *Client {
	c := &Client{
		cred:        cred,
		baseURL:     DefaultBaseURL,
		fileName:    DefaultFileName,
		http:        http.DefaultClient,
		timeout:     DefaultTimeout,
		backoff:     DefaultBackoff,
		maxAttempts: DefaultMaxAttempts,
		limiter:     NewLimiter(),
		log:         zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = NewBreaker("gist")
	}
	c.log = c.log.With().Str("component", "gist").Logger()
	return c
}

// NewLimiter returns the default client side limiter: 5 requests per second.
func NewLimiter() *rate.Limiter { return rate.NewLimiter(rate.Limit(5), 5) }

// NewBreaker returns a circuit breaker opening after 5 consecutive transient
// failures, and probing again after a minute.
//
// Authentication and parse failures are answers from the server, they do not
// count against it.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return !isTransient(err)
		},
	})
}
