package users

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/shared"
)

// Repository provides PostgreSQL backed persistence. Concurrent loads of the
// same user share one query via singleflight; nothing is cached across
// requests.
type Repository struct {
	pool  *pgxpool.Pool
	group singleflight.Group
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetWithRole loads a user together with its role and the role's permission
// closure.
func (r *Repository) GetWithRole(ctx context.Context, id int64) (User, error) {
	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return r.getWithRole(ctx, id)
	})
	if err != nil {
		return User{}, err
	}
	return v.(User), nil
}

func (r *Repository) getWithRole(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.name, u.email, u.is_active, u.created_at, u.updated_at,
		        r.id, r.name, r.description, r.is_system_role
		 FROM users u
		 JOIN roles r ON r.id = u.role_id
		 WHERE u.id = $1`, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
			&user.Role.ID, &user.Role.Name, &user.Role.Description, &user.Role.IsSystemRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, &shared.DatabaseError{Op: "users.get_with_role", Err: err}
	}
	perms, err := r.rolePermissions(ctx, user.Role.ID)
	if err != nil {
		return User{}, err
	}
	user.Role.Permissions = perms
	return user, nil
}

// FindByEmailWithRole resolves a verified login email to its account.
func (r *Repository) FindByEmailWithRole(ctx context.Context, email string) (User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, &shared.DatabaseError{Op: "users.find_by_email", Err: err}
	}
	return r.getWithRole(ctx, id)
}

// List returns all users with their roles (permission sets omitted).
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.is_active, u.created_at, u.updated_at,
		        r.id, r.name, r.description, r.is_system_role
		 FROM users u
		 JOIN roles r ON r.id = u.role_id
		 ORDER BY u.id`)
	if err != nil {
		return nil, &shared.DatabaseError{Op: "users.list", Err: err}
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
			&user.Role.ID, &user.Role.Name, &user.Role.Description, &user.Role.IsSystemRole); err != nil {
			return nil, &shared.DatabaseError{Op: "users.list scan", Err: err}
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, &shared.DatabaseError{Op: "users.list rows", Err: err}
	}
	return out, nil
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) (perm.Set, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission_id FROM roles_x_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, &shared.DatabaseError{Op: "users.role_permissions", Err: err}
	}
	defer rows.Close()
	set := perm.NewSet()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, &shared.DatabaseError{Op: "users.role_permissions scan", Err: err}
		}
		if p := perm.Permission(id); perm.Valid(p) {
			set[p] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &shared.DatabaseError{Op: "users.role_permissions rows", Err: err}
	}
	return set, nil
}
