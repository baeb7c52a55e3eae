package rbac

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists roles and their permission sets. Implementations return
// ErrNotFound for missing roles and *DuplicateRoleError on name collisions.
type Store interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, name string) (Role, error)
	GetRoleByID(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, name string, role Role) (Role, error)
	DeleteRole(ctx context.Context, name string) error
	RolePermissions(ctx context.Context, roleID int64) ([]string, error)
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	roles  map[string]Role
	now    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, roles: make(map[string]Role), now: time.Now}
}

func (m *MemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roles := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		roles = append(roles, cloneRole(r))
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (m *MemoryStore) GetRole(ctx context.Context, name string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[NormalizeRoleName(name)]
	if !ok {
		return Role{}, ErrNotFound
	}
	return cloneRole(r), nil
}

func (m *MemoryStore) GetRoleByID(ctx context.Context, id int64) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.roles {
		if r.ID == id {
			return cloneRole(r), nil
		}
	}
	return Role{}, ErrNotFound
}

func (m *MemoryStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizeRoleName(role.Name)
	if _, ok := m.roles[key]; ok {
		return Role{}, &DuplicateRoleError{Name: role.Name}
	}
	now := m.now().UTC()
	role.ID = m.nextID
	role.CreatedAt, role.UpdatedAt = now, now
	m.nextID++
	m.roles[key] = cloneRole(role)
	return cloneRole(role), nil
}

func (m *MemoryStore) UpdateRole(ctx context.Context, name string, role Role) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizeRoleName(name)
	existing, ok := m.roles[key]
	if !ok {
		return Role{}, ErrNotFound
	}
	existing.DisplayName = role.DisplayName
	existing.Permissions = role.Permissions
	existing.UpdatedAt = m.now().UTC()
	m.roles[key] = cloneRole(existing)
	return cloneRole(existing), nil
}

func (m *MemoryStore) DeleteRole(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizeRoleName(name)
	if _, ok := m.roles[key]; !ok {
		return ErrNotFound
	}
	delete(m.roles, key)
	return nil
}

func (m *MemoryStore) RolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	role, err := m.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

func cloneRole(r Role) Role {
	perms := make([]string, len(r.Permissions))
	copy(perms, r.Permissions)
	r.Permissions = perms
	return r
}

var _ Store = (*MemoryStore)(nil)
