package apikeys

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/makerhall/makerhall/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create generates a token and inserts the key. The token never changes
// after this point.
func (r *Repository) Create(ctx context.Context, name string) (APIKey, error) {
	token, err := GenerateToken()
	if err != nil {
		return APIKey{}, err
	}
	key := APIKey{Name: name, Token: token}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO api_keys (name, token, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 RETURNING id, created_at, updated_at`,
		key.Name, key.Token).
		Scan(&key.ID, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		return APIKey{}, &shared.DatabaseError{Op: "apikeys.create", Err: err}
	}
	return key, nil
}

// Get fetches a key by id.
func (r *Repository) Get(ctx context.Context, id int64) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, token, created_at, updated_at FROM api_keys WHERE id = $1`, id).
		Scan(&key.ID, &key.Name, &key.Token, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, shared.ErrNotFound
		}
		return APIKey{}, &shared.DatabaseError{Op: "apikeys.get", Err: err}
	}
	return key, nil
}

// List returns all keys ordered by name.
func (r *Repository) List(ctx context.Context) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, token, created_at, updated_at FROM api_keys ORDER BY name`)
	if err != nil {
		return nil, &shared.DatabaseError{Op: "apikeys.list", Err: err}
	}
	defer rows.Close()
	var keys []APIKey
	for rows.Next() {
		var key APIKey
		if err := rows.Scan(&key.ID, &key.Name, &key.Token, &key.CreatedAt, &key.UpdatedAt); err != nil {
			return nil, &shared.DatabaseError{Op: "apikeys.list scan", Err: err}
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, &shared.DatabaseError{Op: "apikeys.list rows", Err: err}
	}
	return keys, nil
}

// Update renames a key. The statement deliberately excludes the token
// column so the original token survives any update.
func (r *Repository) Update(ctx context.Context, id int64, name string) (APIKey, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_keys SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		return APIKey{}, &shared.DatabaseError{Op: "apikeys.update", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return APIKey{}, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return &shared.DatabaseError{Op: "apikeys.delete", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByToken resolves a presented bearer token to its key.
func (r *Repository) FindByToken(ctx context.Context, token string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, token, created_at, updated_at FROM api_keys WHERE token = $1`, token).
		Scan(&key.ID, &key.Name, &key.Token, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, shared.ErrNotFound
		}
		return APIKey{}, &shared.DatabaseError{Op: "apikeys.find_by_token", Err: err}
	}
	return key, nil
}
