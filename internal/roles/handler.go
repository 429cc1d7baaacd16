package roles

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/makerhall/makerhall/internal/authn"
	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/platform/httpx"
	"github.com/makerhall/makerhall/internal/shared"
)

// RoleStore is the persistence contract the handler depends on.
type RoleStore interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) (Role, error)
	Delete(ctx context.Context, id int64) (Role, error)
}

// Handler wires HTTP endpoints for role administration.
type Handler struct {
	logger   *slog.Logger
	store    RoleStore
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store RoleStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, validate: validator.New()}
}

// MountRoutes registers role routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type rolePayload struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
	Permissions []int  `json:"permissions"`
}

type roleResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsSystemRole bool   `json:"is_system_role"`
	Permissions  []int  `json:"permissions"`
}

func toRoleResponse(role Role) roleResponse {
	perms := role.Permissions.Values()
	out := make([]int, len(perms))
	for i, p := range perms {
		out[i] = int(p)
	}
	return roleResponse{
		ID:           role.ID,
		Name:         role.Name,
		Description:  role.Description,
		IsSystemRole: role.IsSystemRole,
		Permissions:  out,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.RoleList); err != nil {
		httpx.RespondError(w, err)
		return
	}
	roles, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.RoleList); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.store.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.RoleCreate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.decodeRole(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.store.Create(r.Context(), role)
	if err != nil {
		h.logger.Error("create role", slog.String("name", role.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.RoleUpdate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.decodeRole(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role.ID = id
	updated, err := h.store.Update(r.Context(), role)
	if err != nil {
		h.logger.Error("update role", slog.Int64("role_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.RoleDelete); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.store.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handler) decodeRole(r *http.Request) (Role, error) {
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		return Role{}, &shared.InvalidInputError{Reason: "malformed JSON body"}
	}
	if err := h.validate.Struct(payload); err != nil {
		return Role{}, &shared.InvalidInputError{Reason: err.Error()}
	}
	role := Role{Name: payload.Name, Description: payload.Description}
	perms := make([]perm.Permission, len(payload.Permissions))
	for i, p := range payload.Permissions {
		perms[i] = perm.Permission(p)
	}
	if err := role.SetPermissions(perms); err != nil {
		return Role{}, err
	}
	return role, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &shared.InvalidInputError{Field: "id", Reason: "must be numeric"}
	}
	return id, nil
}
