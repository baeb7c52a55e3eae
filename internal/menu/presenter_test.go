package menu_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetline/backoffice/internal/menu"
	"github.com/fleetline/backoffice/internal/rbac"
)

type gate struct {
	release chan struct{}
	started chan struct{}
}

func newPresenter(t *testing.T, byRole map[int64][]string, gates map[int64]*gate) *menu.Presenter {
	t.Helper()
	table, err := rbac.DefaultFallbackTable()
	require.NoError(t, err)
	eval := rbac.NewEvaluator(rbac.EvaluatorParams{
		Catalog:  rbac.DefaultCatalog(),
		Fallback: table,
		Fetcher: rbac.FetcherFunc(func(ctx context.Context, roleID int64) ([]string, error) {
			if g, ok := gates[roleID]; ok {
				close(g.started)
				<-g.release
			}
			return byRole[roleID], nil
		}),
	})
	return menu.NewPresenter(rbac.NewTracker(eval), nil, nil)
}

func TestPresenterRendersCurrentUser(t *testing.T) {
	p := newPresenter(t, map[int64][]string{2: {"dashboard.view", "sales.view"}}, nil)
	assert.Empty(t, p.Render())

	items, err := p.SwitchUser(context.Background(), &rbac.CurrentUser{ID: 1, Role: &rbac.RoleRef{ID: 2, Name: "sales"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard", "finance", "sales"}, ids(items))
	assert.Equal(t, items, p.Render())

	p.SignOut()
	assert.Empty(t, p.Render())
}

func TestPresenterDropsSupersededSwitch(t *testing.T) {
	slow := &gate{release: make(chan struct{}), started: make(chan struct{})}
	p := newPresenter(t, map[int64][]string{
		2: {"dashboard.view", "sales.view"},
		3: {"dashboard.view", "trips.view"},
	}, map[int64]*gate{2: slow})

	done := make(chan []menu.Entry)
	go func() {
		items, _ := p.SwitchUser(context.Background(), &rbac.CurrentUser{ID: 1, Role: &rbac.RoleRef{ID: 2, Name: "sales"}})
		done <- items
	}()
	<-slow.started

	items, err := p.SwitchUser(context.Background(), &rbac.CurrentUser{ID: 2, Role: &rbac.RoleRef{ID: 3, Name: "driver"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard", "dispatch", "trips"}, ids(items))

	close(slow.release)
	stale := <-done
	assert.Equal(t, []string{"dashboard", "dispatch", "trips"}, ids(stale))
	assert.Equal(t, []string{"dashboard", "dispatch", "trips"}, ids(p.Render()))
}
