package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/duka-api/internal/domain/user"
)

var (
	_ user.Repository     = (*UserRepository)(nil)
	_ user.RoleRepository = (*RoleRepository)(nil)
)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const selectUserSQL = `SELECT u.id, u.email, u.full_name, u.phone, u.password_hash,
		COALESCE(u.role_id, ''), COALESCE(r.name, ''), u.created_at, u.updated_at
	FROM users u LEFT JOIN roles r ON r.id = u.role_id`

// Create persists a new user. A duplicate email surfaces as
// user.DuplicateEmailError.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, full_name, phone, password_hash, role_id)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
		u.ID, u.Email, u.FullName, u.Phone, u.PasswordHash, u.RoleID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &user.DuplicateEmailError{Email: u.Email}
		}
		return fmt.Errorf("creating user %q: %w", u.Email, err)
	}
	return nil
}

// GetByID returns a single user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, selectUserSQL+` WHERE u.id = $1`, id)
}

// GetByEmail returns a single user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, selectUserSQL+` WHERE u.email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, selectUserSQL+` ORDER BY u.created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Update stores the mutable profile fields and role of a user.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET full_name = $2, phone = $3, role_id = NULLIF($4, ''), updated_at = now()
			WHERE id = $1`,
		u.ID, u.FullName, u.Phone, u.RoleID,
	)
	if err != nil {
		return fmt.Errorf("updating user %q: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Phone, &u.PasswordHash,
		&u.RoleID, &u.RoleName, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// RoleRepository implements user.RoleRepository backed by PostgreSQL.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a RoleRepository that uses the given pool.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// ListRoles returns all roles.
func (r *RoleRepository) ListRoles(ctx context.Context) ([]user.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.Role, error) {
		var role user.Role
		err := row.Scan(&role.ID, &role.Name, &role.CreatedAt)
		return role, err
	})
}

// GetRoleByName returns the role with the given name.
func (r *RoleRepository) GetRoleByName(ctx context.Context, name string) (*user.Role, error) {
	var role user.Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM roles WHERE name = $1`, name,
	).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrRoleNotFound
		}
		return nil, fmt.Errorf("getting role %q: %w", name, err)
	}
	return &role, nil
}

// CreateRole persists a new role.
func (r *RoleRepository) CreateRole(ctx context.Context, role *user.Role) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name,
	); err != nil {
		return fmt.Errorf("creating role %q: %w", role.Name, err)
	}
	return nil
}

// DeleteRole removes a role.
func (r *RoleRepository) DeleteRole(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting role %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrRoleNotFound
	}
	return nil
}

// ListPermissions returns all permissions.
func (r *RoleRepository) ListPermissions(ctx context.Context) ([]user.Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.Permission, error) {
		var p user.Permission
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
}

// CreatePermission persists a new permission.
func (r *RoleRepository) CreatePermission(ctx context.Context, p *user.Permission) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO permissions (id, name) VALUES ($1, $2)`, p.ID, p.Name,
	); err != nil {
		return fmt.Errorf("creating permission %q: %w", p.Name, err)
	}
	return nil
}

// DeletePermission removes a permission.
func (r *RoleRepository) DeletePermission(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting permission %q: %w", id, err)
	}
	return nil
}

// AttachPermission links a permission to a role.
func (r *RoleRepository) AttachPermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
		roleID, permissionID,
	); err != nil {
		return fmt.Errorf("attaching permission %q to role %q: %w", permissionID, roleID, err)
	}
	return nil
}
