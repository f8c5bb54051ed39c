package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/duka-api/internal/domain/catalog"
)

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]categoryResponse, len(cats))
	for i, c := range cats {
		out[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "category name is required")
		return
	}

	c := &catalog.Category{ID: uuid.New().String(), Name: req.Name}
	if err := h.catalog.CreateCategory(r.Context(), c); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{ID: c.ID, Name: c.Name})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "category name is required")
		return
	}

	c := &catalog.Category{ID: chi.URLParam(r, "id"), Name: req.Name}
	if err := h.catalog.UpdateCategory(r.Context(), c); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{ID: c.ID, Name: c.Name})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type subcategoryResponse struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
}

func (h *Handler) listSubcategories(w http.ResponseWriter, r *http.Request) {
	subs, err := h.catalog.ListSubcategories(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]subcategoryResponse, len(subs))
	for i, s := range subs {
		out[i] = subcategoryResponse{ID: s.ID, CategoryID: s.CategoryID, Name: s.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createSubcategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "subcategory name is required")
		return
	}

	s := &catalog.Subcategory{
		ID:         uuid.New().String(),
		CategoryID: chi.URLParam(r, "id"),
		Name:       req.Name,
	}
	if err := h.catalog.CreateSubcategory(r.Context(), s); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subcategoryResponse{ID: s.ID, CategoryID: s.CategoryID, Name: s.Name})
}

func (h *Handler) deleteSubcategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSubcategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrSubcategoryNotFound) {
			writeError(w, http.StatusNotFound, "subcategory not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type productResponse struct {
	ID            string    `json:"id"`
	SubcategoryID string    `json:"subcategoryId"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"imageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toProductResponse(p *catalog.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		SubcategoryID: p.SubcategoryID,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		CreatedAt:     p.CreatedAt,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type productRequest struct {
	SubcategoryID string `json:"subcategoryId"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ImageURL      string `json:"imageUrl"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.SubcategoryID == "" {
		writeError(w, http.StatusBadRequest, "name and subcategoryId are required")
		return
	}

	p := &catalog.Product{
		ID:            uuid.New().String(),
		SubcategoryID: req.SubcategoryID,
		Name:          req.Name,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
	}
	if err := h.catalog.CreateProduct(r.Context(), p); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternal(w, r, err)
		return
	}

	if req.SubcategoryID != "" {
		p.SubcategoryID = req.SubcategoryID
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.ImageURL != "" {
		p.ImageURL = req.ImageURL
	}

	if err := h.catalog.UpdateProduct(r.Context(), p); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type modelResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toModelResponse(m *catalog.Model) modelResponse {
	return modelResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
	}
}

func (h *Handler) listModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.catalog.ListModels(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]modelResponse, len(models))
	for i := range models {
		out[i] = toModelResponse(&models[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.GetModel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrModelNotFound) {
			writeError(w, http.StatusNotFound, "product model not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toModelResponse(m))
}

func (h *Handler) createModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "model name is required")
		return
	}
	if req.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	m := &catalog.Model{
		ID:        uuid.New().String(),
		ProductID: chi.URLParam(r, "id"),
		Name:      req.Name,
		Price:     req.Price,
	}
	if err := h.catalog.CreateModel(r.Context(), m); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toModelResponse(m))
}

func (h *Handler) deleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteModel(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrModelNotFound) {
			writeError(w, http.StatusNotFound, "product model not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inventoryResponse struct {
	ProductModelID string    `json:"productModelId"`
	Quantity       int       `json:"quantity"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.inventory.Get(r.Context(), chi.URLParam(r, "modelID"))
	if err != nil {
		if errors.Is(err, catalog.ErrInventoryNotFound) {
			writeError(w, http.StatusNotFound, "inventory not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inventoryResponse{
		ProductModelID: inv.ProductModelID,
		Quantity:       inv.Quantity,
		UpdatedAt:      inv.UpdatedAt,
	})
}

func (h *Handler) setInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	modelID := chi.URLParam(r, "modelID")
	if err := h.inventory.Set(r.Context(), modelID, req.Quantity); err != nil {
		if errors.Is(err, catalog.ErrInventoryNotFound) {
			writeError(w, http.StatusNotFound, "inventory not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inventoryResponse{ProductModelID: modelID, Quantity: req.Quantity})
}

type reviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]reviewResponse, len(reviews))
	for i, rev := range reviews {
		out[i] = reviewResponse{
			ID:        rev.ID,
			ProductID: rev.ProductID,
			UserID:    rev.UserID,
			Rating:    rev.Rating,
			Comment:   rev.Comment,
			CreatedAt: rev.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5, got "+strconv.Itoa(req.Rating))
		return
	}

	rev := &catalog.Review{
		ID:        uuid.New().String(),
		ProductID: chi.URLParam(r, "id"),
		UserID:    UserIDFromContext(r.Context()),
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.reviews.Create(r.Context(), rev); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reviewResponse{
		ID:        rev.ID,
		ProductID: rev.ProductID,
		UserID:    rev.UserID,
		Rating:    rev.Rating,
		Comment:   rev.Comment,
	})
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
