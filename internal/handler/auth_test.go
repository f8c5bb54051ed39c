package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/duka-api/internal/domain/user"
)

// unreachableUsers fails every lookup the way a dead database would.
type unreachableUsers struct {
	user.Repository
}

func (unreachableUsers) GetByEmail(_ context.Context, _ string) (*user.User, error) {
	return nil, errors.New("pg: connection refused to 10.0.0.5:5432")
}

type seededRoles struct {
	user.RoleRepository
}

func (seededRoles) GetRoleByName(_ context.Context, name string) (*user.Role, error) {
	return &user.Role{ID: "role-" + name, Name: name}, nil
}

func postRegister(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.register(rec, req)

	var envelope errorResponse
	if rec.Code >= 400 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	}
	return rec, envelope
}

func TestRegisterRepositoryFailureAnswersGeneric500(t *testing.T) {
	h := &Handler{users: user.NewService(unreachableUsers{}, seededRoles{})}

	rec, envelope := postRegister(t, h, `{"email":"jane@example.com","password":"longenough"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, envelope.Messages, 1)
	assert.Equal(t, "internal server error", envelope.Messages[0])
	assert.NotContains(t, envelope.Messages[0], "connection refused", "internal detail stays server-side")
}

func TestRegisterBadInputAnswers400(t *testing.T) {
	h := &Handler{users: user.NewService(unreachableUsers{}, seededRoles{})}

	// Validation runs before any repository call, so the dead repo is never hit.
	rec, envelope := postRegister(t, h, `{"email":"jane@example.com","password":"short"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, envelope.Messages, 1)
	assert.Contains(t, envelope.Messages[0], "8 characters")
}
