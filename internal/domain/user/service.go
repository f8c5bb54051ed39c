package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service encapsulates account registration and credential checks.
type Service struct {
	users Repository
	roles RoleRepository
}

// NewService creates a user Service with the required repositories.
func NewService(users Repository, roles RoleRepository) *Service {
	return &Service{users: users, roles: roles}
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Email    string
	FullName string
	Phone    string
	Password string
}

// Register validates the request, hashes the password and persists the user
// with the default USER role. Bad input yields ValidationError, a taken email
// DuplicateEmailError.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Reason: "valid email is required"}
	}
	if len(req.Password) < 8 {
		return nil, &ValidationError{Reason: "password must be at least 8 characters"}
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, &DuplicateEmailError{Email: email}
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check existing email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	role, err := s.roles.GetRoleByName(ctx, RoleUser)
	if err != nil {
		return nil, errors.Wrap(err, "resolve default role")
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hash),
		RoleID:       role.ID,
		RoleName:     role.Name,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Authenticate verifies the email/password pair and returns the matching
// user. Wrong email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "lookup user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
