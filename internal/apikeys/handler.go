package apikeys

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

// KeyStore is the persistence contract the handler depends on.
type KeyStore interface {
	Create(ctx context.Context, name string) (APIKey, error)
	Get(ctx context.Context, id int64) (APIKey, error)
	List(ctx context.Context) ([]APIKey, error)
	Update(ctx context.Context, id int64, name string) (APIKey, error)
	Delete(ctx context.Context, id int64) error
}

// Handler wires HTTP endpoints for API key administration.
type Handler struct {
	logger   *slog.Logger
	store    KeyStore
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store KeyStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, validate: validator.New()}
}

// MountRoutes registers API key routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type keyPayload struct {
	Name string `json:"name" validate:"required,min=2"`
}

type keyResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.APIKeyList); err != nil {
		httpx.RespondError(w, err)
		return
	}
	keys, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list api keys", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]keyResponse, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyResponse{ID: key.ID, Name: key.Name, Token: key.Token})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.APIKeyList); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	key, err := h.store.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, keyResponse{ID: key.ID, Name: key.Name, Token: key.Token})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.APIKeyCreate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payload, err := h.decodePayload(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	key, err := h.store.Create(r.Context(), payload.Name)
	if err != nil {
		h.logger.Error("create api key", slog.String("name", payload.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, keyResponse{ID: key.ID, Name: key.Name, Token: key.Token})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.APIKeyUpdate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payload, err := h.decodePayload(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	key, err := h.store.Update(r.Context(), id, payload.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, keyResponse{ID: key.ID, Name: key.Name, Token: key.Token})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.APIKeyDelete); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePayload(r *http.Request) (keyPayload, error) {
	var payload keyPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		return keyPayload{}, &shared.InvalidInputError{Reason: "malformed JSON body"}
	}
	if err := h.validate.Struct(payload); err != nil {
		return keyPayload{}, &shared.InvalidInputError{Reason: err.Error()}
	}
	return payload, nil
}

func (h *Handler) parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &shared.InvalidInputError{Field: "id", Reason: "must be numeric"}
	}
	return id, nil
}
