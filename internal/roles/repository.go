package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/platform/db"
	"github.com/makerhall/makerhall/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles and the
// roles_x_permissions join table.
type Repository struct {
	pool db.Conn
}

// NewRepository constructs a repository.
func NewRepository(pool db.Conn) *Repository {
	return &Repository{pool: pool}
}

// List returns all roles with their permission sets.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, is_system_role, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, &shared.DatabaseError{Op: "roles.list", Err: err}
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, &shared.DatabaseError{Op: "roles.list scan", Err: err}
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, &shared.DatabaseError{Op: "roles.list rows", Err: err}
	}
	for i := range roles {
		perms, err := r.loadPermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// Get fetches a role with its permission set.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, is_system_role, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, &shared.DatabaseError{Op: "roles.get", Err: err}
	}
	perms, err := r.loadPermissions(ctx, role.ID)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

// GetByName fetches a role by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (Role, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, &shared.DatabaseError{Op: "roles.get_by_name", Err: err}
	}
	return r.Get(ctx, id)
}

// Create inserts the role row and its permission join rows in one
// transaction.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, description, is_system_role, created_at, updated_at)
			 VALUES ($1, $2, $3, now(), now())
			 RETURNING id, created_at, updated_at`,
			role.Name, role.Description, role.IsSystemRole).
			Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return &shared.DatabaseError{Op: "roles.create", Err: err}
		}
		for _, p := range role.Permissions.Values() {
			if _, err := tx.Exec(ctx,
				`INSERT INTO roles_x_permissions (role_id, permission_id) VALUES ($1, $2)`,
				role.ID, int(p)); err != nil {
				return &shared.DatabaseError{Op: "roles.create permission", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// Update writes the role row and reconciles the join table with a minimal
// diff: inserts for added permissions, deletes for removed, nothing for the
// intersection. Any statement failure rolls the whole operation back.
func (r *Repository) Update(ctx context.Context, role Role) (Role, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE roles SET name = $2, description = $3, updated_at = now() WHERE id = $1`,
			role.ID, role.Name, role.Description)
		if err != nil {
			return &shared.DatabaseError{Op: "roles.update", Err: err}
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}

		current, err := loadPermissionsTx(ctx, tx, role.ID)
		if err != nil {
			return err
		}
		added, removed := DiffPermissions(current, role.Permissions)
		for _, p := range added {
			if _, err := tx.Exec(ctx,
				`INSERT INTO roles_x_permissions (role_id, permission_id) VALUES ($1, $2)`,
				role.ID, int(p)); err != nil {
				return &shared.DatabaseError{Op: "roles.update add permission", Err: err}
			}
		}
		for _, p := range removed {
			if _, err := tx.Exec(ctx,
				`DELETE FROM roles_x_permissions WHERE role_id = $1 AND permission_id = $2`,
				role.ID, int(p)); err != nil {
				return &shared.DatabaseError{Op: "roles.update remove permission", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	return r.Get(ctx, role.ID)
}

// Delete removes a role and its join rows. A system role is never deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (Role, error) {
	role, err := r.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if role.IsSystemRole {
		return Role{}, shared.ErrForbidden
	}
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM roles_x_permissions WHERE role_id = $1`, id); err != nil {
			return &shared.DatabaseError{Op: "roles.delete permissions", Err: err}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
			return &shared.DatabaseError{Op: "roles.delete", Err: err}
		}
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

func (r *Repository) loadPermissions(ctx context.Context, roleID int64) (perm.Set, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission_id FROM roles_x_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, &shared.DatabaseError{Op: "roles.permissions", Err: err}
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func loadPermissionsTx(ctx context.Context, tx pgx.Tx, roleID int64) (perm.Set, error) {
	rows, err := tx.Query(ctx,
		`SELECT permission_id FROM roles_x_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, &shared.DatabaseError{Op: "roles.permissions", Err: err}
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func scanPermissions(rows pgx.Rows) (perm.Set, error) {
	set := perm.NewSet()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, &shared.DatabaseError{Op: "roles.permissions scan", Err: err}
		}
		// Unknown values are dropped rather than surfaced as valid grants.
		if p := perm.Permission(id); perm.Valid(p) {
			set[p] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &shared.DatabaseError{Op: "roles.permissions rows", Err: err}
	}
	return set, nil
}
