package menu

import (
	"context"
	"log/slog"

	"github.com/fleetline/backoffice/internal/rbac"
)

// Presenter keeps a rendered menu in step with the signed-in user. Each
// render evaluates every entry against one resolved permission set.
type Presenter struct {
	tracker *rbac.Tracker
	tree    []Entry
	logger  *slog.Logger
}

// NewPresenter builds a Presenter over tree. A nil tree uses DefaultTree.
func NewPresenter(tracker *rbac.Tracker, tree []Entry, logger *slog.Logger) *Presenter {
	if tree == nil {
		tree = DefaultTree()
	}
	return &Presenter{tracker: tracker, tree: tree, logger: logger}
}

// SwitchUser re-resolves permissions for user and returns the menu to show.
// When a newer switch overtook this one, the newer user's menu is returned.
func (p *Presenter) SwitchUser(ctx context.Context, user *rbac.CurrentUser) ([]Entry, error) {
	ac, applied, err := p.tracker.SetUser(ctx, user)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("menu resolve", slog.Any("error", err))
		}
		return nil, err
	}
	if !applied && p.logger != nil {
		p.logger.Debug("menu resolve superseded")
	}
	return Filter(p.tree, ac), nil
}

// SignOut clears the user and any resolution still in flight.
func (p *Presenter) SignOut() {
	p.tracker.Clear()
}

// Render returns the menu for the current user.
func (p *Presenter) Render() []Entry {
	return Filter(p.tree, p.tracker.Current())
}
