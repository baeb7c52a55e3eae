package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetline/backoffice/internal/platform/db"
)

// ErrRoleInUse is returned when a role still has users assigned.
var ErrRoleInUse = errors.New("rbac: role still assigned to users")

const roleSelect = `
SELECT r.id, r.name, r.display_name, r.created_at, r.updated_at,
       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}')::text[]
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id`

// PGStore persists roles in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// ListRoles returns all roles ordered by name.
func (s *PGStore) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.pool.Query(ctx, roleSelect+` GROUP BY r.id ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches a role by case-insensitive name.
func (s *PGStore) GetRole(ctx context.Context, name string) (Role, error) {
	row := s.pool.QueryRow(ctx, roleSelect+` WHERE lower(r.name) = lower($1) GROUP BY r.id`, name)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrNotFound
	}
	return role, err
}

// GetRoleByID fetches a role by id.
func (s *PGStore) GetRoleByID(ctx context.Context, id int64) (Role, error) {
	row := s.pool.QueryRow(ctx, roleSelect+` WHERE r.id = $1 GROUP BY r.id`, id)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrNotFound
	}
	return role, err
}

// CreateRole inserts a role and its permission set in one transaction.
func (s *PGStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, display_name) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
			role.Name, role.DisplayName,
		).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return &DuplicateRoleError{Name: role.Name}
			}
			return err
		}
		return replacePermissions(ctx, tx, role.ID, role.Permissions)
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRole replaces the display name and permission set of a role.
func (s *PGStore) UpdateRole(ctx context.Context, name string, role Role) (Role, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE roles SET display_name = $2, updated_at = NOW()
			 WHERE lower(name) = lower($1)
			 RETURNING id, name, created_at, updated_at`,
			name, role.DisplayName,
		).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return replacePermissions(ctx, tx, role.ID, role.Permissions)
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role by name.
func (s *PGStore) DeleteRole(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE lower(name) = lower($1)`, name)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrRoleInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RolePermissions returns the stored permission keys for a role id.
func (s *PGStore) RolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.name
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE r.id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := false
	perms := []string{}
	for rows.Next() {
		found = true
		var name *string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name != nil {
			perms = append(perms, *name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return perms, nil
}

// SyncCatalog upserts every catalog entry into the permissions table.
func (s *PGStore) SyncCatalog(ctx context.Context, catalog *Catalog) error {
	batch := &pgx.Batch{}
	for _, p := range catalog.List() {
		batch.Queue(`INSERT INTO permissions (name, description) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description`, p.Key(), p.Description)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("rbac: sync catalog: %w", err)
	}
	return nil
}

func replacePermissions(ctx context.Context, tx pgx.Tx, roleID int64, keys []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	var missing []string
	rows, err := tx.Query(ctx, `SELECT k FROM unnest($1::text[]) AS k WHERE k NOT IN (SELECT name FROM permissions)`, keys)
	if err != nil {
		return err
	}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return err
		}
		missing = append(missing, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(missing) > 0 {
		return &UnknownPermissionError{Key: strings.Join(missing, ",")}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, id FROM permissions WHERE name = ANY($2::text[])`, roleID, keys)
	return err
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.DisplayName, &role.CreatedAt, &role.UpdatedAt, &role.Permissions)
	return role, err
}

var _ Store = (*PGStore)(nil)
