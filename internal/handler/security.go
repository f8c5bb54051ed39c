package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/duka-api/internal/domain/user"
)

// authUserKey is the context key for the authenticated user id.
type authUserKey struct{}

// UserIDFromContext extracts the authenticated user id from the context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(authUserKey{}).(string); ok {
		return id
	}
	return ""
}

// Security issues and verifies bearer tokens and gates admin routes.
type Security struct {
	users  user.Repository
	secret []byte
	ttl    time.Duration
}

// NewSecurity creates a Security with the given HMAC secret and token
// lifetime.
func NewSecurity(users user.Repository, secret []byte, ttl time.Duration) *Security {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Security{users: users, secret: secret, ttl: ttl}
}

// IssueToken signs an HS256 token whose subject is the user id.
func (s *Security) IssueToken(u *user.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": u.RoleName,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// verify parses and validates a bearer token, returning the subject.
func (s *Security) verify(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token missing subject")
	}
	return sub, nil
}

// Authenticate requires a valid Authorization: Bearer header and stores the
// subject in the request context.
func (s *Security) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sub, err := s.verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), authUserKey{}, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin resolves the authenticated subject to its current role and
// rejects anything but ADMIN and SUDO. The role comes from the database, not
// the token, so demotions take effect immediately.
func (s *Security) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.users.GetByID(r.Context(), UserIDFromContext(r.Context()))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		if u.RoleName != user.RoleAdmin && u.RoleName != user.RoleSudo {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
