package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/makerhall/makerhall/internal/auth"
	"github.com/makerhall/makerhall/internal/shared"
	"github.com/makerhall/makerhall/internal/users"
	_ "github.com/makerhall/makerhall/testing"
)

func newAuthHandler(t *testing.T, service *auth.Service) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	return auth.NewHandler(nil, service, sessionManager, csrfManager), sessionManager
}

func serveWithSession(t *testing.T, sessionManager *shared.SessionManager, req *http.Request, fn func(w http.ResponseWriter, r *http.Request)) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	fn(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func TestTokenLoginEstablishesSession(t *testing.T) {
	repo := &stubAuthRepo{}
	service := auth.NewService(
		&stubVerifier{info: auth.TokenInfo{Email: "member@makerhall.test", ExpiresAt: time.Now().Add(time.Hour)}},
		&stubUserFinder{users: map[string]users.User{"member@makerhall.test": activeMember()}},
		repo,
	)
	handler, sessionManager := newAuthHandler(t, service)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"token":"goodtoken"}`))
	req.Header.Set("Content-Type", "application/json")

	res, sess := serveWithSession(t, sessionManager, req, handler.LoginWithTokenForTest)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}
	if sess.User() != "12" {
		t.Fatalf("expected session bound to user 12, got %q", sess.User())
	}
	if repo.sessions[sess.ID] != 12 {
		t.Fatalf("expected session row registered")
	}

	var payload struct {
		UserID    int64  `json:"user_id"`
		Role      string `json:"role"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.UserID != 12 || payload.Role != "member" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.CSRFToken == "" {
		t.Fatalf("expected csrf token in login response")
	}
}

func TestTokenLoginNotProvisioned(t *testing.T) {
	service := auth.NewService(
		&stubVerifier{info: auth.TokenInfo{Email: "stranger@makerhall.test", ExpiresAt: time.Now().Add(time.Hour)}},
		&stubUserFinder{users: map[string]users.User{}},
		&stubAuthRepo{},
	)
	handler, sessionManager := newAuthHandler(t, service)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"token":"goodtoken"}`))
	req.Header.Set("Content-Type", "application/json")

	res, sess := serveWithSession(t, sessionManager, req, handler.LoginWithTokenForTest)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", res.Code)
	}
	if sess.User() != "" {
		t.Fatalf("refused login must not bind the session")
	}
}

func TestTokenLoginBadToken(t *testing.T) {
	service := auth.NewService(
		&stubVerifier{err: shared.ErrInvalidCredentials},
		&stubUserFinder{users: map[string]users.User{}},
		&stubAuthRepo{},
	)
	handler, sessionManager := newAuthHandler(t, service)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"token":"badtoken"}`))
	req.Header.Set("Content-Type", "application/json")

	res, _ := serveWithSession(t, sessionManager, req, handler.LoginWithTokenForTest)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubAuthRepo{sessions: map[string]int64{}}
	service := auth.NewService(&stubVerifier{}, &stubUserFinder{}, repo)
	handler, sessionManager := newAuthHandler(t, service)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser("12")
	repo.sessions[sess.ID] = 12

	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	handler.LogoutForTest(res, req.WithContext(ctx))

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if _, ok := repo.sessions[sess.ID]; ok {
		t.Fatalf("expected session row removed")
	}
}
