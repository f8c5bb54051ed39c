// Package user holds user accounts, roles and permissions.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role names with elevated access.
const (
	RoleSudo  = "SUDO"
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Sentinel errors for user operations.
var (
	ErrNotFound           = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// DuplicateEmailError indicates a registration attempt with an email that is
// already taken.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return "email " + e.Email + " is already registered"
}

// ValidationError reports rejected registration input. Handlers map it to a
// client error; anything else coming out of Register is an internal failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// User is a registered account. PasswordHash is a bcrypt digest and never
// leaves the server.
type User struct {
	ID           string
	Email        string
	FullName     string
	Phone        string
	PasswordHash string
	RoleID       string
	RoleName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role groups permissions under a name checked by the admin route gate.
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Permission is a named capability attachable to roles.
type Permission struct {
	ID   string
	Name string
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}

// RoleRepository defines persistence operations for roles and permissions.
type RoleRepository interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, r *Role) error
	DeleteRole(ctx context.Context, id string) error

	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, p *Permission) error
	DeletePermission(ctx context.Context, id string) error
	AttachPermission(ctx context.Context, roleID, permissionID string) error
}
