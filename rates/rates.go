// Package rates resolves the USD to CNY exchange rate used to display amounts.
package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	journey "github.com/etnz/cryptojourney"
	"github.com/etnz/cryptojourney/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultURL is the public endpoint giving the latest USD rates.
const DefaultURL = "https://api.exchangerate-api.com/v4/latest/USD"

// CacheTTL is how long a fetched rate is trusted.
const CacheTTL = 30 * time.Minute

// Fetcher retrieves the latest rate from the network.
type Fetcher struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// NewFetcher returns a Fetcher on url, or DefaultURL if empty.
func NewFetcher(url string) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{URL: url, Client: http.DefaultClient, Timeout: 10 * time.Second}
}

// Latest returns the current USD to CNY rate.
func (f *Fetcher) Latest(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot create http request %q: %w", f.URL, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: cannot get exchange rate: %w", journey.ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: cannot http GET %v%v: %v", journey.ErrTransient, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, 1<<20)); err != nil {
		return decimal.Zero, fmt.Errorf("%w: cannot read exchange rate: %w", journey.ErrTransient, err)
	}

	var jobj any
	// numbers are kept as json.Number to avoid going through float64.
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	if err := dec.Decode(&jobj); err != nil {
		return decimal.Zero, fmt.Errorf("%w: exchange rate payload: %w", journey.ErrParse, err)
	}
	const path = "$.rates.CNY"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: exchange rate payload has no %s", journey.ErrParse, path)
	}
	n, ok := jval.(json.Number)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: exchange rate %s is %T", journey.ErrParse, path, jval)
	}
	rate, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: exchange rate %q: %w", journey.ErrParse, n, err)
	}
	if err := journey.ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// Source is anything able to give the latest rate.
type Source interface {
	Latest(ctx context.Context) (decimal.Decimal, error)
}

// Resolve returns the rate to use now.
//
// A cached rate younger than CacheTTL is used as is. Otherwise the rate is
// fetched from src and cached. When that fails the last stored rate is used,
// and finally journey.DefaultRate. The stored rate is updated with any fresh
// rate. Only storage failures are returned.
func Resolve(ctx context.Context, st *store.Store, src Source, now time.Time, log zerolog.Logger) (decimal.Decimal, error) {
	cache, ok, err := st.RateCache(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if ok && now.Sub(cache.Timestamp) < CacheTTL && journey.ValidateRate(cache.Rate) == nil {
		log.Debug().Stringer("rate", cache.Rate).Time("fetched", cache.Timestamp).Msg("using cached exchange rate")
		return cache.Rate, nil
	}

	if src != nil {
		rate, err := src.Latest(ctx)
		if err == nil {
			log.Info().Stringer("rate", rate).Msg("fetched exchange rate")
			if err := st.SaveRateCache(ctx, store.RateCache{Rate: rate, Timestamp: now}); err != nil {
				return rate, err
			}
			return rate, st.SaveRate(ctx, rate)
		}
		log.Warn().Err(err).Msg("cannot fetch exchange rate, using the stored one")
	}
	return st.Rate(ctx)
}
