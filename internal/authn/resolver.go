package authn

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/shared"
)

const bearerPrefix = "Bearer "

// KeyView is the authn-local projection of an API key. Resolution only ever
// needs the key's name; keeping a local view instead of the apikeys domain
// type avoids an import cycle with the handlers that depend on this package.
type KeyView struct {
	Name string
}

// KeyFinder looks up an API key by its token.
type KeyFinder interface {
	FindByToken(ctx context.Context, token string) (KeyView, error)
}

// UserView is the authn-local projection of a user with its role flattened
// into a name and permission set, for the same cycle-avoidance reason as
// KeyView.
type UserView struct {
	ID          int64
	Name        string
	Email       string
	IsActive    bool
	RoleName    string
	Permissions perm.Set
}

// UserLoader loads a user with its role and permission closure.
type UserLoader interface {
	GetWithRole(ctx context.Context, id int64) (UserView, error)
}

// Resolver turns inbound credential material into a principal. Precedence is
// fixed: a present bearer token is consumed here and never falls through to
// the session; only the complete absence of an Authorization token reaches
// the cookie path.
type Resolver struct {
	keys  KeyFinder
	users UserLoader

	// adminRoleName and adminPerms are granted to every valid API key. Known
	// simplification carried over deliberately: keys have no per-key scope.
	// Revisit before issuing keys to anything less trusted than the door
	// controller.
	adminRoleName string
	adminPerms    perm.Set
}

// NewResolver constructs a Resolver. The administrative role carries the
// full permission catalogue.
func NewResolver(keys KeyFinder, userLoader UserLoader, adminRoleName string) *Resolver {
	return &Resolver{
		keys:          keys,
		users:         userLoader,
		adminRoleName: adminRoleName,
		adminPerms:    perm.NewSet(perm.All()...),
	}
}

// Resolve returns the principal for the request, or nil for anonymous.
// Resolution runs at most once per request: a memoized result in the
// context is returned as-is.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*Principal, error) {
	if p, ok := FromContext(ctx); ok {
		return p, nil
	}

	header := req.Header.Get("Authorization")
	if len(header) >= len(bearerPrefix)+1 && strings.HasPrefix(header, bearerPrefix) {
		return r.resolveBearer(ctx, strings.TrimSpace(header[len(bearerPrefix):]))
	}

	return r.resolveSession(ctx)
}

func (r *Resolver) resolveBearer(ctx context.Context, token string) (*Principal, error) {
	key, err := r.keys.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// A present-but-unknown bearer token is a dead end, not a
			// fallthrough to the session path.
			return nil, nil
		}
		return nil, err
	}
	return &Principal{
		Name:        key.Name,
		IsActive:    true,
		RoleName:    r.adminRoleName,
		Permissions: r.adminPerms,
	}, nil
}

func (r *Resolver) resolveSession(ctx context.Context) (*Principal, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		// The session middleware failed to run: a deployment fault, not a
		// caller problem.
		return nil, shared.ErrSessionUnavailable
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, nil
	}
	user, err := r.users.GetWithRole(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Stale session pointing at a removed account.
			return nil, nil
		}
		return nil, err
	}
	return &Principal{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		IsActive:    user.IsActive,
		RoleName:    user.RoleName,
		Permissions: user.Permissions,
	}, nil
}
