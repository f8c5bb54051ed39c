package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/duka-api/internal/domain/order"
)

type createOrderRequest struct {
	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer"`
	Items []struct {
		ProductModelID string `json:"productModelId"`
		Quantity       int    `json:"quantity"`
	} `json:"items"`
	VAT bool `json:"vat"`
}

type orderItemResponse struct {
	ID             string          `json:"id"`
	ProductModelID string          `json:"productModelId"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId,omitempty"`
	Customer  customerResponse    `json:"customer"`
	Items     []orderItemResponse `json:"items"`
	Subtotal  decimal.Decimal     `json:"subtotal"`
	Tax       decimal.Decimal     `json:"tax"`
	Total     decimal.Decimal     `json:"total"`
	Status    order.Status        `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

type customerResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ID:             item.ID,
			ProductModelID: item.ProductModelID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
		}
	}
	return orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Customer:  customerResponse{Name: o.Customer.Name, Email: o.Customer.Email, Phone: o.Customer.Phone},
		Items:     items,
		Subtotal:  o.Subtotal,
		Tax:       o.Tax,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{ProductModelID: item.ProductModelID, Quantity: item.Quantity}
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		UserID: UserIDFromContext(r.Context()),
		Customer: order.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: items,
		VAT:   req.VAT,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// writeOrderError maps order placement failures onto the error envelope.
// Stock and model problems are client errors; anything unrecognized is a 500.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		qtyErr   *order.InvalidQuantityError
		modelErr *order.ModelNotFoundError
		stockErr *order.InsufficientStockError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, "order must contain at least one item")
	case errors.As(err, &qtyErr):
		writeError(w, http.StatusBadRequest, qtyErr.Error())
	case errors.As(err, &modelErr):
		writeError(w, http.StatusNotFound, modelErr.Error())
	case errors.As(err, &stockErr):
		writeError(w, http.StatusBadRequest, stockErr.Error())
	default:
		writeInternal(w, r, err)
	}
}

func (h *Handler) listOwnOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderRepo.ListByUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderRepo.List(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// ownOrder loads the order and verifies it belongs to the caller. Foreign
// orders read as not found so ids cannot be probed.
func (h *Handler) ownOrder(w http.ResponseWriter, r *http.Request) *order.Order {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return nil
		}
		writeInternal(w, r, err)
		return nil
	}
	if o.UserID != UserIDFromContext(r.Context()) {
		writeError(w, http.StatusNotFound, "order not found")
		return nil
	}
	return o
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o := h.ownOrder(w, r)
	if o == nil {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o := h.ownOrder(w, r)
	if o == nil {
		return
	}
	if o.Status == order.StatusCancelled {
		writeJSON(w, http.StatusOK, toOrderResponse(o))
		return
	}

	// Stock returns to the shelf unless the caller opts out.
	restoreStock := r.URL.Query().Get("restoreStock") != "false"
	if err := h.orders.Cancel(r.Context(), o.ID, restoreStock); err != nil {
		writeInternal(w, r, err)
		return
	}
	o.Status = order.StatusCancelled
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	o := h.ownOrder(w, r)
	if o == nil {
		return
	}
	if err := h.orders.Delete(r.Context(), o.ID); err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
