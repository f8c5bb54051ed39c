package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/duka-api/internal/domain/cart"
)

type cartItemResponse struct {
	ProductModelID string    `json:"productModelId"`
	Quantity       int       `json:"quantity"`
	AddedAt        time.Time `json:"addedAt"`
}

func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.carts.List(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]cartItemResponse, len(items))
	for i, item := range items {
		out[i] = cartItemResponse{
			ProductModelID: item.ProductModelID,
			Quantity:       item.Quantity,
			AddedAt:        item.AddedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductModelID string `json:"productModelId"`
		Quantity       int    `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductModelID == "" {
		writeError(w, http.StatusBadRequest, "productModelId is required")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be greater than 0")
		return
	}

	item := &cart.Item{
		UserID:         UserIDFromContext(r.Context()),
		ProductModelID: req.ProductModelID,
		Quantity:       req.Quantity,
	}
	if err := h.carts.Add(r.Context(), item); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cartItemResponse{
		ProductModelID: item.ProductModelID,
		Quantity:       item.Quantity,
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	err := h.carts.Remove(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "modelID"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), UserIDFromContext(r.Context())); err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type wishlistItemResponse struct {
	ProductModelID string    `json:"productModelId"`
	AddedAt        time.Time `json:"addedAt"`
}

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlists.List(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]wishlistItemResponse, len(items))
	for i, item := range items {
		out[i] = wishlistItemResponse{ProductModelID: item.ProductModelID, AddedAt: item.AddedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) addWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductModelID string `json:"productModelId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductModelID == "" {
		writeError(w, http.StatusBadRequest, "productModelId is required")
		return
	}

	item := &cart.WishlistItem{
		UserID:         UserIDFromContext(r.Context()),
		ProductModelID: req.ProductModelID,
	}
	if err := h.wishlists.Add(r.Context(), item); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wishlistItemResponse{ProductModelID: item.ProductModelID})
}

func (h *Handler) removeWishlistItem(w http.ResponseWriter, r *http.Request) {
	err := h.wishlists.Remove(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "modelID"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
