package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/makerhall/makerhall/internal/platform/httpx"
	"github.com/makerhall/makerhall/internal/shared"
)

// Handler wires the login endpoints. These routes sit outside the CSRF
// middleware; a session only gains a user id after a successful login.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		csrf:     csrf,
		validate: validator.New(),
	}
}

// MountRoutes registers login routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/token", h.loginWithToken)
	r.Post("/login", h.loginWithPassword)
	r.Post("/logout", h.logout)
}

type tokenLoginPayload struct {
	Token string `json:"token" validate:"required"`
}

type passwordLoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CSRFToken string `json:"csrf_token"`
}

func (h *Handler) loginWithToken(w http.ResponseWriter, r *http.Request) {
	var payload tokenLoginPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Reason: "malformed JSON body"})
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Reason: err.Error()})
		return
	}

	user, err := h.service.LoginWithToken(r.Context(), payload.Token)
	if err != nil {
		h.logger.Warn("token login refused", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.establishSession(w, r, user.ID, user.Name, user.Email, user.Role.Name)
}

func (h *Handler) loginWithPassword(w http.ResponseWriter, r *http.Request) {
	var payload passwordLoginPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Reason: "malformed JSON body"})
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, &shared.InvalidInputError{Reason: err.Error()})
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.logger.Warn("password login refused", slog.String("email", payload.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.establishSession(w, r, user.ID, user.Name, user.Email, user.Role.Name)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
		return
	}
	if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
		h.logger.Error("remove session row", slog.Any("error", err))
	}
	h.sessions.Destroy(sess)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// LoginWithTokenForTest exposes the token login handler for tests.
func (h *Handler) LoginWithTokenForTest(w http.ResponseWriter, r *http.Request) {
	h.loginWithToken(w, r)
}

// LogoutForTest exposes the logout handler for tests.
func (h *Handler) LogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r)
}

func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, userID int64, name, email, role string) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.ErrSessionUnavailable)
		return
	}
	sess.SetUser(strconv.FormatInt(userID, 10))

	token, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RegisterSession(r.Context(), sess.ID, userID, h.sessions.TTL(), r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Error("register session row", slog.Int64("user_id", userID), slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		UserID:    userID,
		Name:      name,
		Email:     email,
		Role:      role,
		CSRFToken: token,
	})
}
