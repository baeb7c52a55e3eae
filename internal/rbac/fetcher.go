package rbac

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// RoleFetcher loads the live permission keys granted to a role. It is an
// external call and may fail or be slow.
type RoleFetcher interface {
	FetchRolePermissions(ctx context.Context, roleID int64) ([]string, error)
}

// FetcherFunc adapts a function to RoleFetcher.
type FetcherFunc func(ctx context.Context, roleID int64) ([]string, error)

// FetchRolePermissions calls f.
func (f FetcherFunc) FetchRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	return f(ctx, roleID)
}

// FetcherConfig tunes GuardedFetcher.
type FetcherConfig struct {
	// Timeout bounds a single live fetch.
	Timeout time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// GuardedFetcher protects a RoleFetcher with a timeout, a circuit breaker and
// request collapsing per role id.
type GuardedFetcher struct {
	next    RoleFetcher
	breaker *gobreaker.CircuitBreaker[[]string]
	group   singleflight.Group
	timeout time.Duration
}

// NewGuardedFetcher wraps next.
func NewGuardedFetcher(next RoleFetcher, cfg FetcherConfig, logger *slog.Logger, metrics *Metrics) *GuardedFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        "rbac-live-fetch",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("rbac breaker state change",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}
			metrics.observeBreaker(to)
		},
		IsSuccessful: func(err error) bool {
			// A missing role is an answer from a healthy store.
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
	return &GuardedFetcher{next: next, breaker: breaker, timeout: cfg.Timeout}
}

// FetchRolePermissions implements RoleFetcher.
func (f *GuardedFetcher) FetchRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	ch := f.group.DoChan(strconv.FormatInt(roleID, 10), func() (interface{}, error) {
		return f.breaker.Execute(func() ([]string, error) {
			// Shared by every waiter, so one caller's cancellation must not fail the others.
			fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
			defer cancel()
			return f.next.FetchRolePermissions(fetchCtx, roleID)
		})
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		perms, _ := res.Val.([]string)
		return cloneKeys(perms), nil
	}
}

// State returns the breaker state.
func (f *GuardedFetcher) State() gobreaker.State {
	return f.breaker.State()
}

var _ RoleFetcher = (*GuardedFetcher)(nil)
