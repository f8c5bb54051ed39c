package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/duka-api/internal/domain/user"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]userResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.userRepo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

type updateUserRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.userRepo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternal(w, r, err)
		return
	}

	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Role != nil {
		role, err := h.roleRepo.GetRoleByName(r.Context(), *req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown role "+*req.Role)
			return
		}
		u.RoleID = role.ID
		u.RoleName = role.Name
	}

	if err := h.userRepo.Update(r.Context(), u); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userRepo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleRepo.ListRoles(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]roleResponse, len(roles))
	for i, role := range roles {
		out[i] = roleResponse{ID: role.ID, Name: role.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "role name is required")
		return
	}

	role := &user.Role{ID: uuid.New().String(), Name: req.Name}
	if err := h.roleRepo.CreateRole(r.Context(), role); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, roleResponse{ID: role.ID, Name: role.Name})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.roleRepo.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, user.ErrRoleNotFound) {
			writeError(w, http.StatusNotFound, "role not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type permissionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.roleRepo.ListPermissions(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]permissionResponse, len(perms))
	for i, p := range perms {
		out[i] = permissionResponse{ID: p.ID, Name: p.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "permission name is required")
		return
	}

	p := &user.Permission{ID: uuid.New().String(), Name: req.Name}
	if err := h.roleRepo.CreatePermission(r.Context(), p); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, permissionResponse{ID: p.ID, Name: p.Name})
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.roleRepo.DeletePermission(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) attachPermission(w http.ResponseWriter, r *http.Request) {
	err := h.roleRepo.AttachPermission(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "permID"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
