package rbac_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/backoffice/internal/rbac"
)

// gatedFetcher blocks fetches for one role until released.
type gatedFetcher struct {
	gated   int64
	started chan struct{}
	release chan struct{}
	perms   map[int64][]string
}

func newGatedFetcher(gated int64, perms map[int64][]string) *gatedFetcher {
	return &gatedFetcher{gated: gated, started: make(chan struct{}), release: make(chan struct{}), perms: perms}
}

func (f *gatedFetcher) FetchRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	if roleID == f.gated {
		close(f.started)
		<-f.release
	}
	return f.perms[roleID], nil
}

type setUserResult struct {
	ac      rbac.AuthorizationContext
	applied bool
	err     error
}

func TestTrackerDiscardsSupersededResolution(t *testing.T) {
	fetcher := newGatedFetcher(10, map[int64][]string{
		10: {"packages.view", "packages.delete"},
		20: {"trips.view"},
	})
	tracker := rbac.NewTracker(newEvaluator(t, fetcher))
	ctx := context.Background()
	userA := &rbac.CurrentUser{ID: 1, Role: &rbac.RoleRef{ID: 10, Name: "ops", DisplayName: "Operations"}}
	userB := &rbac.CurrentUser{ID: 2, Role: &rbac.RoleRef{ID: 20, Name: "driver", DisplayName: "Driver"}}

	done := make(chan setUserResult, 1)
	go func() {
		ac, applied, err := tracker.SetUser(ctx, userA)
		done <- setUserResult{ac, applied, err}
	}()
	<-fetcher.started

	acB, applied, err := tracker.SetUser(ctx, userB)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, int64(2), acB.UserID())

	close(fetcher.release)
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.False(t, res.applied)
	case <-time.After(5 * time.Second):
		t.Fatal("stale resolution never returned")
	}

	current := tracker.Current()
	assert.Equal(t, int64(2), current.UserID())
	assert.True(t, current.HasPermission("trips.view"))
	assert.False(t, current.HasPermission("packages.delete"))
}

func TestTrackerClearAbandonsInFlightResolution(t *testing.T) {
	fetcher := newGatedFetcher(10, map[int64][]string{10: {"packages.view"}})
	tracker := rbac.NewTracker(newEvaluator(t, fetcher))
	user := &rbac.CurrentUser{ID: 1, Role: &rbac.RoleRef{ID: 10, Name: "ops"}}

	done := make(chan setUserResult, 1)
	go func() {
		ac, applied, err := tracker.SetUser(context.Background(), user)
		done <- setUserResult{ac, applied, err}
	}()
	<-fetcher.started
	tracker.Clear()
	close(fetcher.release)

	res := <-done
	assert.False(t, res.applied)
	assert.False(t, tracker.Current().Authenticated())
	assert.False(t, tracker.Current().HasPermission("packages.view"))
}

func TestTrackerAppliesLatestUser(t *testing.T) {
	fetcher := rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
		return []string{"dashboard.view"}, nil
	})
	tracker := rbac.NewTracker(newEvaluator(t, fetcher))
	assert.False(t, tracker.Current().Authenticated())

	ac, applied, err := tracker.SetUser(context.Background(), &rbac.CurrentUser{ID: 3, Role: &rbac.RoleRef{ID: 1, Name: "viewer"}})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, ac.Permissions(), tracker.Current().Permissions())

	_, applied, err = tracker.SetUser(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, tracker.Current().HasPermission("dashboard.view"))
}
