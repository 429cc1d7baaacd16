package cards

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

// CardStore is the persistence contract the handler depends on.
type CardStore interface {
	Create(ctx context.Context, card Card) (Card, error)
	Read(ctx context.Context, id int64) (Card, error)
	Delete(ctx context.Context, id int64) (Card, error)
	Search(ctx context.Context, filter Filter) ([]Card, error)
}

// Handler wires HTTP endpoints for card management.
type Handler struct {
	logger   *slog.Logger
	store    CardStore
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store CardStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, validate: validator.New()}
}

// MountRoutes registers card routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.read)
	r.Delete("/{id}", h.delete)
}

type createCardRequest struct {
	ID              int64  `json:"id" validate:"required,gt=0"`
	Type            string `json:"type" validate:"required"`
	EquipmentTypeID int64  `json:"equipment_type_id"`
	UserID          int64  `json:"user_id"`
}

type cardResponse struct {
	ID              int64  `json:"id"`
	Type            string `json:"type"`
	EquipmentTypeID int64  `json:"equipment_type_id,omitempty"`
	UserID          int64  `json:"user_id,omitempty"`
}

func toResponse(card Card) cardResponse {
	return cardResponse{
		ID:              card.ID,
		Type:            card.Type.String(),
		EquipmentTypeID: card.EquipmentTypeID,
		UserID:          card.UserID,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	scope, err := authn.ScopeFor(principal, perm.CardListOwn, perm.CardList)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var filter Filter
	q := r.URL.Query()
	if raw := q.Get("equipment_type_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, &shared.InvalidInputError{Field: "equipment_type_id", Reason: "must be numeric"})
			return
		}
		filter.EquipmentTypeID = id
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, &shared.InvalidInputError{Field: "user_id", Reason: "must be numeric"})
			return
		}
		filter.UserID = id
	}
	filter.IDFragment = q.Get("id")
	if !scope.All {
		filter.UserID = scope.UserID
	}

	cards, err := h.store.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error("search cards", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toResponse(card))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.CardCreate); err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req createCardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Reason: "malformed JSON body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Reason: err.Error()})
		return
	}
	cardType, err := ParseCardType(req.Type)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	card, err := h.store.Create(r.Context(), Card{
		ID:              req.ID,
		Type:            cardType,
		EquipmentTypeID: req.EquipmentTypeID,
		UserID:          req.UserID,
	})
	if err != nil {
		h.logger.Error("create card", slog.Int64("card_id", req.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(card))
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.CardRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Field: "id", Reason: "card id must be numeric"})
		return
	}
	card, err := h.store.Read(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(card))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := authn.FromContext(r.Context())
	if err := authn.Require(principal, perm.CardDelete); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Field: "id", Reason: "card id must be numeric"})
		return
	}
	card, err := h.store.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(card))
}
