package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/makerhall/makerhall/internal/auth"
	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/roles"
	"github.com/makerhall/makerhall/internal/shared"
	"github.com/makerhall/makerhall/internal/users"
	_ "github.com/makerhall/makerhall/testing"
)

type stubVerifier struct {
	info auth.TokenInfo
	err  error
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (auth.TokenInfo, error) {
	if s.err != nil {
		return auth.TokenInfo{}, s.err
	}
	return s.info, nil
}

type stubUserFinder struct {
	users map[string]users.User
}

func (s *stubUserFinder) FindByEmailWithRole(ctx context.Context, email string) (users.User, error) {
	user, ok := s.users[email]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return user, nil
}

type stubAuthRepo struct {
	creds    map[string]auth.Credentials
	sessions map[string]int64
}

func (s *stubAuthRepo) FindCredentials(ctx context.Context, email string) (auth.Credentials, error) {
	creds, ok := s.creds[email]
	if !ok {
		return auth.Credentials{}, shared.ErrNotFound
	}
	return creds, nil
}

func (s *stubAuthRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = map[string]int64{}
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubAuthRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func activeMember() users.User {
	return users.User{
		ID:       12,
		Name:     "Member",
		Email:    "member@makerhall.test",
		IsActive: true,
		Role:     roles.Role{Name: "member", Permissions: perm.NewSet(perm.CardListOwn)},
	}
}

func TestLoginWithTokenSuccess(t *testing.T) {
	service := auth.NewService(
		&stubVerifier{info: auth.TokenInfo{Email: "member@makerhall.test", ExpiresAt: time.Now().Add(time.Hour)}},
		&stubUserFinder{users: map[string]users.User{"member@makerhall.test": activeMember()}},
		&stubAuthRepo{},
	)

	user, err := service.LoginWithToken(context.Background(), "goodtoken")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != 12 {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestLoginWithTokenRejected(t *testing.T) {
	service := auth.NewService(
		&stubVerifier{err: shared.ErrInvalidCredentials},
		&stubUserFinder{users: map[string]users.User{"member@makerhall.test": activeMember()}},
		&stubAuthRepo{},
	)

	_, err := service.LoginWithToken(context.Background(), "expiredtoken")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWithTokenNotProvisioned(t *testing.T) {
	service := auth.NewService(
		&stubVerifier{info: auth.TokenInfo{Email: "stranger@makerhall.test", ExpiresAt: time.Now().Add(time.Hour)}},
		&stubUserFinder{users: map[string]users.User{"member@makerhall.test": activeMember()}},
		&stubAuthRepo{},
	)

	// A verified identity without a local account is a distinct refusal.
	_, err := service.LoginWithToken(context.Background(), "goodtoken")
	if !errors.Is(err, shared.ErrNotProvisioned) {
		t.Fatalf("expected ErrNotProvisioned, got %v", err)
	}
}

func TestLoginWithTokenInactiveAccount(t *testing.T) {
	member := activeMember()
	member.IsActive = false
	service := auth.NewService(
		&stubVerifier{info: auth.TokenInfo{Email: member.Email, ExpiresAt: time.Now().Add(time.Hour)}},
		&stubUserFinder{users: map[string]users.User{member.Email: member}},
		&stubAuthRepo{},
	)

	_, err := service.LoginWithToken(context.Background(), "goodtoken")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticatePassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubAuthRepo{creds: map[string]auth.Credentials{
		"member@makerhall.test": {UserID: 12, Email: "member@makerhall.test", PasswordHash: string(hashed), IsActive: true},
	}}
	service := auth.NewService(
		&stubVerifier{},
		&stubUserFinder{users: map[string]users.User{"member@makerhall.test": activeMember()}},
		repo,
	)

	user, err := service.Authenticate(context.Background(), "member@makerhall.test", "correcthorse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != 12 {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := service.Authenticate(context.Background(), "member@makerhall.test", "wrongpass"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Authenticate(context.Background(), "nobody@makerhall.test", "correcthorse"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSessionRegistration(t *testing.T) {
	repo := &stubAuthRepo{}
	service := auth.NewService(&stubVerifier{}, &stubUserFinder{}, repo)

	if err := service.RegisterSession(context.Background(), "sess-1", 12, time.Hour, "127.0.0.1", "test"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if repo.sessions["sess-1"] != 12 {
		t.Fatalf("session row not recorded")
	}
	if err := service.RemoveSession(context.Background(), "sess-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := repo.sessions["sess-1"]; ok {
		t.Fatalf("session row not removed")
	}
}
