package rbac_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/backoffice/internal/rbac"
)

func TestGuardedFetcherOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	next := rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
		calls.Add(1)
		return nil, errors.New("db down")
	})
	f := rbac.NewGuardedFetcher(next, rbac.FetcherConfig{MaxFailures: 2, OpenTimeout: time.Hour}, nil, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.FetchRolePermissions(ctx, 1)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, f.State())

	_, err := f.FetchRolePermissions(ctx, 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGuardedFetcherNotFoundDoesNotTrip(t *testing.T) {
	next := rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
		return nil, rbac.ErrNotFound
	})
	f := rbac.NewGuardedFetcher(next, rbac.FetcherConfig{MaxFailures: 1}, nil, nil)
	for i := 0; i < 3; i++ {
		_, err := f.FetchRolePermissions(context.Background(), 1)
		assert.ErrorIs(t, err, rbac.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, f.State())
}

func TestGuardedFetcherTimesOut(t *testing.T) {
	next := rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	f := rbac.NewGuardedFetcher(next, rbac.FetcherConfig{Timeout: 20 * time.Millisecond}, nil, nil)
	_, err := f.FetchRolePermissions(context.Background(), 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardedFetcherCollapsesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	next := rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"trips.view"}, nil
	})
	f := rbac.NewGuardedFetcher(next, rbac.FetcherConfig{Timeout: time.Minute}, nil, nil)

	var wg sync.WaitGroup
	results := make([][]string, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			perms, err := f.FetchRolePermissions(context.Background(), 7)
			if err == nil {
				results[i] = perms
			}
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, perms := range results {
		assert.Equal(t, []string{"trips.view"}, perms)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGuardedFetcherHonoursCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	next := rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
		<-release
		return []string{"trips.view"}, nil
	})
	f := rbac.NewGuardedFetcher(next, rbac.FetcherConfig{Timeout: time.Minute}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchRolePermissions(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
