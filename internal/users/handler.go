package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/makerhall/makerhall/internal/authn"
	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/platform/httpx"
)

// UserLister is the persistence contract the handler depends on.
type UserLister interface {
	List(ctx context.Context) ([]User, error)
}

// Handler manages user listing endpoints.
type Handler struct {
	logger *slog.Logger
	store  UserLister
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store UserLister) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

type userResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	Role     string `json:"role"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.UserList); err != nil {
		httpx.RespondError(w, err)
		return
	}
	users, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, userResponse{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			IsActive: user.IsActive,
			Role:     user.Role.Name,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
