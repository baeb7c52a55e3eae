package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetline/backoffice/internal/platform/db"
	"github.com/fleetline/backoffice/internal/rbac"
)

const userSelect = `
SELECT u.id, u.email, u.name, u.is_active, u.created_at, u.updated_at,
       r.id, r.name, r.display_name
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, userSelect+` ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a user together with the role it holds right now.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

// AssignRole points the user at roleID.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, userID, roleID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return rbac.ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CountByRole returns how many users hold roleID.
func (r *Repository) CountByRole(ctx context.Context, roleID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user        User
		roleID      *int64
		roleName    *string
		roleDisplay *string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		&roleID, &roleName, &roleDisplay); err != nil {
		return User{}, err
	}
	if roleID != nil {
		user.Role = &rbac.RoleRef{ID: *roleID}
		if roleName != nil {
			user.Role.Name = *roleName
		}
		if roleDisplay != nil {
			user.Role.DisplayName = *roleDisplay
		}
	}
	return user, nil
}

var _ RepositoryPort = (*Repository)(nil)
