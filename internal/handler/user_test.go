package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/duka-api/internal/domain/user"
)

type stubRoleRepo struct {
	user.RoleRepository
	perms []user.Permission
}

func (s stubRoleRepo) ListPermissions(_ context.Context) ([]user.Permission, error) {
	return s.perms, nil
}

func TestListPermissionsUsesCamelCaseKeys(t *testing.T) {
	h := &Handler{roleRepo: stubRoleRepo{perms: []user.Permission{
		{ID: "p-1", Name: "catalog:write"},
	}}}

	req := httptest.NewRequest(http.MethodGet, "/permissions", nil)
	rec := httptest.NewRecorder()
	h.listPermissions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "p-1", out[0]["id"])
	assert.Equal(t, "catalog:write", out[0]["name"])
	assert.NotContains(t, out[0], "ID", "wire keys follow the camelCase convention")
}
