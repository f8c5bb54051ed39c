package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/duka-api/internal/domain/user"
)

// stubUsers serves a fixed set of users by id.
type stubUsers struct {
	user.Repository
	byID map[string]*user.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newTestSecurity(users map[string]*user.User) *Security {
	return NewSecurity(&stubUsers{byID: users}, []byte("test-secret"), time.Hour)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserIDFromContext(r.Context())))
	})
}

func TestAuthenticateRoundTrip(t *testing.T) {
	u := &user.User{ID: "u-1", RoleName: user.RoleUser}
	sec := newTestSecurity(map[string]*user.User{"u-1": u})

	token, err := sec.IssueToken(u)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	sec.Authenticate(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", rec.Body.String(), "subject flows into the request context")
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	sec := newTestSecurity(nil)

	for _, header := range []string{"", "Bearer ", "Bearer not-a-jwt", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		sec.Authenticate(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	u := &user.User{ID: "u-1"}
	other := NewSecurity(&stubUsers{}, []byte("other-secret"), time.Hour)
	token, err := other.IssueToken(u)
	require.NoError(t, err)

	sec := newTestSecurity(map[string]*user.User{"u-1": u})
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	sec.Authenticate(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	users := map[string]*user.User{
		"admin": {ID: "admin", RoleName: user.RoleAdmin},
		"sudo":  {ID: "sudo", RoleName: user.RoleSudo},
		"plain": {ID: "plain", RoleName: user.RoleUser},
	}
	sec := newTestSecurity(users)

	tests := []struct {
		subject string
		want    int
	}{
		{"admin", http.StatusOK},
		{"sudo", http.StatusOK},
		{"plain", http.StatusForbidden},
		{"ghost", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req = req.WithContext(context.WithValue(req.Context(), authUserKey{}, tt.subject))
		rec := httptest.NewRecorder()

		sec.RequireAdmin(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "subject %q", tt.subject)
	}
}
