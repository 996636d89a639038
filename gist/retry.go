package gist

import (
	"context"
	"errors"
	"fmt"
	"time"

	journey "github.com/etnz/cryptojourney"
	"github.com/sony/gobreaker"
)

func isTransient(err error) bool {
	return err != nil && errors.Is(err, journey.ErrTransient)
}

// do runs attempt until it succeeds, fails for good, or maxAttempts transient
// failures happened.
//
// Each attempt gets its own deadline. An attempt running out of time fails with
// journey.ErrTimeout. Exhausting the attempts fails with journey.ErrSyncFailed
// wrapping the last error.
func (c *Client) do(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	var last error
	for i := 1; i <= c.maxAttempts; i++ {
		if i > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		c.log.Debug().Str("op", op).Int("attempt", i).Msg("calling gist api")
		start := time.Now()
		_, err := c.breaker.Execute(func() (any, error) {
			actx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			err := attempt(actx)
			if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %s after %v", journey.ErrTimeout, op, c.timeout)
			}
			return nil, err
		})
		if err == nil {
			c.log.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Msg("gist api call succeeded")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Warn().Str("op", op).Msg("gist api circuit is open")
			return fmt.Errorf("%w: %w: %w", journey.ErrSyncFailed, journey.ErrTransient, err)
		}

		c.log.Warn().Err(err).Str("op", op).Int("attempt", i).Msg("gist api call failed")
		if !isTransient(err) {
			return err
		}
		last = err
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", journey.ErrSyncFailed, op, c.maxAttempts, last)
}
