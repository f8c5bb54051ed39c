package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/domain/payment"
)

type checkoutRequest struct {
	OrderID string          `json:"orderId"`
	Phone   string          `json:"phone"`
	Amount  decimal.Decimal `json:"amount"`
}

type transactionResponse struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"orderId"`
	MerchantRequestID string          `json:"merchantRequestId"`
	CheckoutRequestID string          `json:"checkoutRequestId"`
	CustomerMessage   string          `json:"customerMessage,omitempty"`
	ResultCode        *int            `json:"resultCode"`
	ResultDescription string          `json:"resultDescription,omitempty"`
	ReceiptNumber     *string         `json:"receiptNumber"`
	Amount            decimal.Decimal `json:"amount"`
	PhoneNumber       string          `json:"phoneNumber"`
	TransactionDate   string          `json:"transactionDate,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func toTransactionResponse(t *payment.Transaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		OrderID:           t.OrderID,
		MerchantRequestID: t.MerchantRequestID,
		CheckoutRequestID: t.CheckoutRequestID,
		CustomerMessage:   t.CustomerMessage,
		ResultCode:        t.ResultCode,
		ResultDescription: t.ResultDescription,
		ReceiptNumber:     t.ReceiptNumber,
		Amount:            t.Amount,
		PhoneNumber:       t.PhoneNumber,
		TransactionDate:   t.TransactionDate,
		CreatedAt:         t.CreatedAt,
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	t, err := h.payments.InitiateSTK(r.Context(), payment.InitiateRequest{
		OrderID: req.OrderID,
		Phone:   req.Phone,
		Amount:  req.Amount,
	})
	if err != nil {
		var initErr *payment.InitError
		switch {
		case errors.Is(err, payment.ErrInvalidPhone),
			errors.Is(err, payment.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &initErr):
			// The provider turned the push down; surface its reason.
			writeError(w, http.StatusUnprocessableEntity, initErr.Error())
		default:
			writeInternal(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (h *Handler) queryPayment(w http.ResponseWriter, r *http.Request) {
	t, err := h.payments.QuerySTK(r.Context(), chi.URLParam(r, "checkoutRequestID"))
	if err != nil {
		if errors.Is(err, payment.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

// paymentCallback receives the provider's asynchronous result. The provider
// retries on non-200, so unknown and conflicting results still answer 200 to
// stop redelivery; they are logged instead.
func (h *Handler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	var env payment.CallbackEnvelope
	if !decodeJSON(w, r, &env) {
		return
	}
	cb := env.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		writeError(w, http.StatusBadRequest, "missing CheckoutRequestID")
		return
	}

	if _, err := h.payments.SaveCallback(r.Context(), cb); err != nil {
		switch {
		case errors.Is(err, payment.ErrTransactionNotFound),
			errors.Is(err, payment.ErrConflictingResult):
			zctx.From(r.Context()).Warn("Discarding callback",
				zap.String("checkout_request_id", cb.CheckoutRequestID),
				zap.Error(err),
			)
		default:
			writeInternal(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
}
