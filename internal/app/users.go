package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aircnc/internal/domain"
)

type UserService struct {
	repo domain.UserRepository
}

func NewUserService(r domain.UserRepository) *UserService { return &UserService{repo: r} }

func (s *UserService) Upsert(ctx context.Context, email string, u domain.User) (domain.UpdateResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.UpdateResult{}, fmt.Errorf("email is required: %w", domain.ErrInvalidRequest)
	}
	switch u.Role {
	case "", domain.RoleGuest, domain.RoleHost:
	default:
		return domain.UpdateResult{}, fmt.Errorf("unknown role %q: %w", u.Role, domain.ErrInvalidRequest)
	}
	u.Email = email
	return s.repo.UpsertUser(ctx, email, u)
}

// Get returns nil without error when no user is stored under email.
func (s *UserService) Get(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.repo.GetUser(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// IsHost backs the host-role gate: a missing user is simply not a host.
func (s *UserService) IsHost(ctx context.Context, email string) (bool, error) {
	u, err := s.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil && u.Role == domain.RoleHost, nil
}
