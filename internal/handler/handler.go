// Package handler exposes the REST API: auth, catalog, cart, orders,
// payments, content and reporting endpoints over chi.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/duka-api/internal/domain/cart"
	"github.com/xenking/duka-api/internal/domain/catalog"
	"github.com/xenking/duka-api/internal/domain/content"
	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/domain/payment"
	"github.com/xenking/duka-api/internal/domain/report"
	"github.com/xenking/duka-api/internal/domain/user"
)

// Handler carries every service and repository the REST surface needs.
type Handler struct {
	users    *user.Service
	userRepo user.Repository
	roleRepo user.RoleRepository

	catalog   catalog.Repository
	inventory catalog.InventoryRepository
	reviews   catalog.ReviewRepository

	carts     cart.Repository
	wishlists cart.WishlistRepository

	orders    *order.Service
	orderRepo order.Repository

	payments *payment.Service

	banners    content.BannerRepository
	quotations content.QuotationRepository
	reports    report.Repository

	security *Security
}

// Deps bundles the handler dependencies for construction.
type Deps struct {
	Users     *user.Service
	UserRepo  user.Repository
	RoleRepo  user.RoleRepository
	Catalog   catalog.Repository
	Inventory catalog.InventoryRepository
	Reviews   catalog.ReviewRepository
	Carts     cart.Repository
	Wishlists cart.WishlistRepository
	Orders    *order.Service
	OrderRepo order.Repository
	Payments  *payment.Service
	Banners   content.BannerRepository
	Quotes    content.QuotationRepository
	Reports   report.Repository
	Security  *Security
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		users:      d.Users,
		userRepo:   d.UserRepo,
		roleRepo:   d.RoleRepo,
		catalog:    d.Catalog,
		inventory:  d.Inventory,
		reviews:    d.Reviews,
		carts:      d.Carts,
		wishlists:  d.Wishlists,
		orders:     d.Orders,
		orderRepo:  d.OrderRepo,
		payments:   d.Payments,
		banners:    d.Banners,
		quotations: d.Quotes,
		reports:    d.Reports,
		security:   d.Security,
	}
}

// Routes registers every endpoint on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public surface.
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}/subcategories", h.listSubcategories)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/products/{id}/models", h.listModels)
	r.Get("/products/{id}/reviews", h.listReviews)
	r.Get("/models/{id}", h.getModel)
	r.Get("/banners", h.listBanners)
	r.Post("/quotations", h.createQuotation)

	// The provider pushes results here; the path is fixed in the provider's
	// configuration and carries no bearer token.
	r.Post("/payments/callback", h.paymentCallback)

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(h.security.Authenticate)

		r.Get("/cart", h.listCart)
		r.Post("/cart", h.addCartItem)
		r.Delete("/cart", h.clearCart)
		r.Delete("/cart/{modelID}", h.removeCartItem)

		r.Get("/wishlist", h.listWishlist)
		r.Post("/wishlist", h.addWishlistItem)
		r.Delete("/wishlist/{modelID}", h.removeWishlistItem)

		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOwnOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
		r.Delete("/orders/{id}", h.deleteOrder)

		r.Post("/products/{id}/reviews", h.createReview)

		r.Post("/payments/checkout", h.checkout)
		r.Get("/payments/{checkoutRequestID}", h.queryPayment)
	})

	// Admin surface.
	r.Group(func(r chi.Router) {
		r.Use(h.security.Authenticate, h.security.RequireAdmin)

		r.Get("/users", h.listUsers)
		r.Get("/users/{id}", h.getUser)
		r.Patch("/users/{id}", h.updateUser)
		r.Delete("/users/{id}", h.deleteUser)

		r.Get("/roles", h.listRoles)
		r.Post("/roles", h.createRole)
		r.Delete("/roles/{id}", h.deleteRole)
		r.Get("/permissions", h.listPermissions)
		r.Post("/permissions", h.createPermission)
		r.Delete("/permissions/{id}", h.deletePermission)
		r.Put("/roles/{id}/permissions/{permID}", h.attachPermission)

		r.Post("/categories", h.createCategory)
		r.Patch("/categories/{id}", h.updateCategory)
		r.Delete("/categories/{id}", h.deleteCategory)
		r.Post("/categories/{id}/subcategories", h.createSubcategory)
		r.Delete("/subcategories/{id}", h.deleteSubcategory)

		r.Post("/products", h.createProduct)
		r.Patch("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Post("/products/{id}/models", h.createModel)
		r.Delete("/models/{id}", h.deleteModel)

		r.Get("/inventory/{modelID}", h.getInventory)
		r.Put("/inventory/{modelID}", h.setInventory)

		r.Delete("/reviews/{id}", h.deleteReview)

		r.Post("/banners", h.createBanner)
		r.Patch("/banners/{id}", h.updateBanner)
		r.Delete("/banners/{id}", h.deleteBanner)

		r.Get("/quotations", h.listQuotations)
		r.Delete("/quotations/{id}", h.deleteQuotation)

		r.Get("/admin/orders", h.listAllOrders)
		r.Get("/reports/sales", h.salesReport)
		r.Get("/dashboard", h.dashboard)
	})

	return r
}

// errorResponse is the JSON error envelope: a status code plus one or more
// human-readable messages. Stack traces and internal detail never leave the
// server.
type errorResponse struct {
	Status   int      `json:"status"`
	Messages []string `json:"messages"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, messages ...string) {
	writeJSON(w, code, errorResponse{Status: code, Messages: messages})
}

// writeInternal logs the full error and answers with a generic 500.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Internal error",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON parses the request body into v, answering 400 on malformed
// input. It reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
