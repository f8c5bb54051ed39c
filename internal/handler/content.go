package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/duka-api/internal/domain/content"
)

type bannerResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func toBannerResponse(b *content.Banner) bannerResponse {
	return bannerResponse{
		ID:        b.ID,
		Title:     b.Title,
		ImageURL:  b.ImageURL,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
	}
}

// listBanners is public and shows active banners only; admins see the full
// set with ?all=true.
func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	banners, err := h.banners.List(r.Context(), activeOnly)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]bannerResponse, len(banners))
	for i := range banners {
		out[i] = toBannerResponse(&banners[i])
	}
	writeJSON(w, http.StatusOK, out)
}

type bannerRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	Active   *bool  `json:"active"`
}

func (h *Handler) createBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "title and imageUrl are required")
		return
	}

	b := &content.Banner{
		ID:       uuid.New().String(),
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Active:   req.Active == nil || *req.Active,
	}
	if err := h.banners.Create(r.Context(), b); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBannerResponse(b))
}

// updateBanner replaces the banner; the whole record is sent back.
func (h *Handler) updateBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "title and imageUrl are required")
		return
	}

	b := &content.Banner{
		ID:       chi.URLParam(r, "id"),
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Active:   req.Active == nil || *req.Active,
	}
	if err := h.banners.Update(r.Context(), b); err != nil {
		if errors.Is(err, content.ErrBannerNotFound) {
			writeError(w, http.StatusNotFound, "banner not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBannerResponse(b))
}

func (h *Handler) deleteBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.banners.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, content.ErrBannerNotFound) {
			writeError(w, http.StatusNotFound, "banner not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quotationResponse struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone"`
	Details       string    `json:"details"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerName  string `json:"customerName"`
		CustomerEmail string `json:"customerEmail"`
		CustomerPhone string `json:"customerPhone"`
		Details       string `json:"details"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CustomerName == "" || req.Details == "" {
		writeError(w, http.StatusBadRequest, "customerName and details are required")
		return
	}

	q := &content.Quotation{
		ID:            uuid.New().String(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Details:       req.Details,
	}
	if err := h.quotations.Create(r.Context(), q); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quotationResponse{
		ID:            q.ID,
		CustomerName:  q.CustomerName,
		CustomerEmail: q.CustomerEmail,
		CustomerPhone: q.CustomerPhone,
		Details:       q.Details,
	})
}

func (h *Handler) listQuotations(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quotations.List(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]quotationResponse, len(quotes))
	for i, q := range quotes {
		out[i] = quotationResponse{
			ID:            q.ID,
			CustomerName:  q.CustomerName,
			CustomerEmail: q.CustomerEmail,
			CustomerPhone: q.CustomerPhone,
			Details:       q.Details,
			CreatedAt:     q.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteQuotation(w http.ResponseWriter, r *http.Request) {
	if err := h.quotations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, content.ErrQuotationNotFound) {
			writeError(w, http.StatusNotFound, "quotation not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
