package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/makerhall/makerhall/internal/shared"
	"github.com/makerhall/makerhall/internal/users"
)

// UserFinder loads provisioned accounts by email.
type UserFinder interface {
	FindByEmailWithRole(ctx context.Context, email string) (users.User, error)
}

// Service implements the login flows. Token login delegates identity to the
// introspection provider; password login checks the local hash.
type Service struct {
	verifier Verifier
	userRepo UserFinder
	repo     Repository
}

// NewService constructs a Service.
func NewService(verifier Verifier, userRepo UserFinder, repo Repository) *Service {
	return &Service{verifier: verifier, userRepo: userRepo, repo: repo}
}

// LoginWithToken verifies the provider token and resolves the local account.
// A valid token without a matching account fails with ErrNotProvisioned, a
// deliberately distinct outcome from bad credentials.
func (s *Service) LoginWithToken(ctx context.Context, token string) (users.User, error) {
	info, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, fmt.Errorf("auth: verify token: %w", err)
	}
	user, err := s.userRepo.FindByEmailWithRole(ctx, info.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return users.User{}, shared.ErrNotProvisioned
		}
		return users.User{}, err
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Authenticate checks email and password against the stored hash.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	creds, err := s.repo.FindCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if !creds.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	user, err := s.userRepo.FindByEmailWithRole(ctx, creds.Email)
	if err != nil {
		return users.User{}, err
	}
	return user, nil
}

// RegisterSession records the server-side session row.
func (s *Service) RegisterSession(ctx context.Context, sessionID string, userID int64, ttl time.Duration, ip, ua string) error {
	return s.repo.CreateSession(ctx, sessionID, userID, time.Now().Add(ttl), ip, ua)
}

// RemoveSession drops the server-side session row.
func (s *Service) RemoveSession(ctx context.Context, sessionID string) error {
	return s.repo.DeleteSession(ctx, sessionID)
}
