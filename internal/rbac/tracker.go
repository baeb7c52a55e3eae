package rbac

import (
	"context"
	"sync"
)

// Tracker holds the authorization context of a long-lived consumer whose
// user can change while a resolution is in flight. Results of superseded
// resolutions are dropped.
type Tracker struct {
	evaluator *Evaluator

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    AuthorizationContext
}

// NewTracker returns a Tracker starting in the anonymous state.
func NewTracker(evaluator *Evaluator) *Tracker {
	return &Tracker{evaluator: evaluator, current: Anonymous()}
}

// SetUser resolves permissions for user and installs them unless another
// SetUser or Clear happened meanwhile. applied reports whether the result
// was installed; when it was not, the returned context is the current one.
func (t *Tracker) SetUser(ctx context.Context, user *CurrentUser) (ac AuthorizationContext, applied bool, err error) {
	t.mu.Lock()
	t.generation++
	gen := t.generation
	if t.cancel != nil {
		t.cancel()
	}
	resolveCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()
	defer cancel()

	resolved, err := t.evaluator.Resolve(resolveCtx, user)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		return t.current, false, nil
	}
	t.cancel = nil
	if err != nil {
		t.current = Anonymous()
		return t.current, false, err
	}
	t.current = resolved
	return resolved, true, nil
}

// Clear drops the current user and abandons any resolution in flight.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.current = Anonymous()
}

// Current returns the last installed context.
func (t *Tracker) Current() AuthorizationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
