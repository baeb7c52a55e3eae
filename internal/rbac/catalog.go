package rbac

import (
	"sync"
)

// Catalog is the closed set of valid permission keys. Entries keep their
// registration order.
type Catalog struct {
	mu      sync.RWMutex
	entries []Permission
	index   map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Register adds module.action to the catalog.
func (c *Catalog) Register(module, action, description string) error {
	mod, act, err := ParseKey(module + "." + action)
	if err != nil {
		return err
	}
	// ParseKey splits at the last dot, so a dotted action would move into the module.
	if mod != NormalizeKey(module) {
		return &InvalidKeyError{Key: module + "." + action}
	}
	perm := Permission{Module: mod, Action: act, Description: description}
	key := perm.Key()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[key]; ok {
		return &DuplicateKeyError{Key: key}
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, perm)
	return nil
}

// RegisterKey registers a permission given as a single module.action key.
func (c *Catalog) RegisterKey(key, description string) error {
	module, action, err := ParseKey(key)
	if err != nil {
		return err
	}
	return c.Register(module, action, description)
}

// List returns every permission in registration order.
func (c *Catalog) List() []Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Permission, len(c.entries))
	copy(out, c.entries)
	return out
}

// Keys returns every permission key in registration order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, len(c.entries))
	for i, p := range c.entries {
		keys[i] = p.Key()
	}
	return keys
}

// Has reports whether key is registered.
func (c *Catalog) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[NormalizeKey(key)]
	return ok
}

// Lookup returns the catalog entry for key.
func (c *Catalog) Lookup(key string) (Permission, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.index[NormalizeKey(key)]
	if !ok {
		return Permission{}, false
	}
	return c.entries[idx], true
}

// Len returns the number of registered permissions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
