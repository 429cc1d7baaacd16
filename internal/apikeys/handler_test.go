package apikeys_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/makerhall/makerhall/internal/apikeys"
	"github.com/makerhall/makerhall/internal/authn"
	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/shared"
	_ "github.com/makerhall/makerhall/testing"
)

type stubKeyStore struct {
	keys   map[int64]apikeys.APIKey
	nextID int64
}

func (s *stubKeyStore) Create(ctx context.Context, name string) (apikeys.APIKey, error) {
	token, err := apikeys.GenerateToken()
	if err != nil {
		return apikeys.APIKey{}, err
	}
	s.nextID++
	key := apikeys.APIKey{ID: s.nextID, Name: name, Token: token}
	s.keys[key.ID] = key
	return key, nil
}

func (s *stubKeyStore) Get(ctx context.Context, id int64) (apikeys.APIKey, error) {
	key, ok := s.keys[id]
	if !ok {
		return apikeys.APIKey{}, shared.ErrNotFound
	}
	return key, nil
}

func (s *stubKeyStore) List(ctx context.Context) ([]apikeys.APIKey, error) {
	out := make([]apikeys.APIKey, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, key)
	}
	return out, nil
}

func (s *stubKeyStore) Update(ctx context.Context, id int64, name string) (apikeys.APIKey, error) {
	key, ok := s.keys[id]
	if !ok {
		return apikeys.APIKey{}, shared.ErrNotFound
	}
	// The token never changes after creation.
	key.Name = name
	s.keys[id] = key
	return key, nil
}

func (s *stubKeyStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.keys[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.keys, id)
	return nil
}

func newKeysRouter(store apikeys.KeyStore, principal *authn.Principal) http.Handler {
	handler := apikeys.NewHandler(nil, store)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(authn.ContextWithPrincipal(req.Context(), principal)))
		})
	})
	r.Route("/api-keys", handler.MountRoutes)
	return r
}

func keyAdmin() *authn.Principal {
	return &authn.Principal{
		ID:          1,
		IsActive:    true,
		RoleName:    "admin",
		Permissions: perm.NewSet(perm.All()...),
	}
}

func TestCreateKeyIssuesToken(t *testing.T) {
	store := &stubKeyStore{keys: map[int64]apikeys.APIKey{}}
	router := newKeysRouter(store, keyAdmin())

	req := httptest.NewRequest(http.MethodPost, "/api-keys/", strings.NewReader(`{"name":"door controller"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", res.Code, res.Body.String())
	}
	var payload struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Token == "" {
		t.Fatalf("expected generated token in response")
	}
}

func TestUpdateKeyPreservesToken(t *testing.T) {
	store := &stubKeyStore{keys: map[int64]apikeys.APIKey{
		3: {ID: 3, Name: "old name", Token: "deadbeefdeadbeefdeadbeefdeadbeef"},
	}}
	router := newKeysRouter(store, keyAdmin())

	req := httptest.NewRequest(http.MethodPut, "/api-keys/3", strings.NewReader(`{"name":"new name"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	key := store.keys[3]
	if key.Name != "new name" {
		t.Fatalf("expected renamed key, got %q", key.Name)
	}
	if key.Token != "deadbeefdeadbeefdeadbeefdeadbeef" {
		t.Fatalf("token must survive rename, got %q", key.Token)
	}
}

func TestDeleteKey(t *testing.T) {
	store := &stubKeyStore{keys: map[int64]apikeys.APIKey{
		3: {ID: 3, Name: "door controller", Token: "deadbeef"},
	}}
	router := newKeysRouter(store, keyAdmin())

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/api-keys/3", nil))

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", res.Code)
	}
	if len(store.keys) != 0 {
		t.Fatalf("expected key removed")
	}
}

func TestListKeysAnonymous(t *testing.T) {
	store := &stubKeyStore{keys: map[int64]apikeys.APIKey{}}
	router := newKeysRouter(store, nil)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api-keys/", nil))

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
}
