package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/mpesa"
)

// Validation errors for payment initiation.
var (
	ErrInvalidPhone  = errors.New("phone must be a valid Kenyan subscriber number")
	ErrInvalidAmount = errors.New("amount must be at least 1")
)

// InitError indicates the provider rejected a push request with a non-zero
// response code.
type InitError struct {
	Code        string
	Description string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("payment initiation rejected: code %s: %s", e.Code, e.Description)
}

// Gateway is the subset of the M-Pesa client the service uses.
type Gateway interface {
	STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
	STKQuery(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResponse, error)
}

// OrderGetter resolves order ids during initiation. The initiator never
// creates orders.
type OrderGetter interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
}

// Service coordinates STK push initiation and result reconciliation.
type Service struct {
	gateway      Gateway
	transactions Repository
	orders       OrderGetter
}

// NewService creates a payment Service.
func NewService(gateway Gateway, transactions Repository, orders OrderGetter) *Service {
	return &Service{
		gateway:      gateway,
		transactions: transactions,
		orders:       orders,
	}
}

// NormalizePhone reduces a Kenyan phone number to its international
// 254XXXXXXXXX form. Accepted inputs carry a 0, +254 or 254 prefix ahead of
// the 9-digit subscriber number; anything else is ErrInvalidPhone.
func NormalizePhone(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(p, "+254"):
		p = p[4:]
	case strings.HasPrefix(p, "254"):
		p = p[3:]
	case strings.HasPrefix(p, "0"):
		p = p[1:]
	default:
		return "", ErrInvalidPhone
	}
	if len(p) != 9 {
		return "", ErrInvalidPhone
	}
	for i := range len(p) {
		if p[i] < '0' || p[i] > '9' {
			return "", ErrInvalidPhone
		}
	}
	return "254" + p, nil
}

// InitiateRequest holds the checkout input.
type InitiateRequest struct {
	OrderID string
	Phone   string
	Amount  decimal.Decimal
}

// InitiateSTK validates the request, pushes the payment prompt and persists
// a pending transaction once the provider accepts. Nothing is persisted when
// the provider rejects or the call fails.
func (s *Service) InitiateSTK(ctx context.Context, req InitiateRequest) (*Transaction, error) {
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if req.Amount.LessThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidAmount
	}
	if _, err := s.orders.GetByID(ctx, req.OrderID); err != nil {
		return nil, errors.Wrap(err, "resolve order")
	}

	resp, err := s.gateway.STKPush(ctx, mpesa.STKPushRequest{
		Phone:       phone,
		Amount:      req.Amount,
		Reference:   req.OrderID,
		Description: "Order " + req.OrderID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "stk push")
	}
	if resp.ResponseCode != "0" {
		return nil, &InitError{Code: resp.ResponseCode, Description: resp.ResponseDescription}
	}

	t := &Transaction{
		ID:                  uuid.New().String(),
		OrderID:             req.OrderID,
		MerchantRequestID:   resp.MerchantRequestID,
		CheckoutRequestID:   resp.CheckoutRequestID,
		ResponseDescription: resp.ResponseDescription,
		CustomerMessage:     resp.CustomerMessage,
		Amount:              req.Amount,
		PhoneNumber:         phone,
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, errors.Wrap(err, "persist transaction")
	}
	return t, nil
}

// QuerySTK returns the reconciled transaction for a checkout request id. A
// resolved row is authoritative and returned without a provider call; a
// pending row triggers a provider status query whose terminal result is
// applied through the shared updater.
func (s *Service) QuerySTK(ctx context.Context, checkoutRequestID string) (*Transaction, error) {
	t, err := s.transactions.GetByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if t.Resolved() {
		return t, nil
	}

	resp, err := s.gateway.STKQuery(ctx, checkoutRequestID)
	if err != nil {
		return nil, errors.Wrap(err, "stk query")
	}
	if resp.ResultCode == "" {
		// Still processing on the provider side.
		return t, nil
	}
	code, err := strconv.Atoi(resp.ResultCode)
	if err != nil {
		return nil, errors.Wrapf(err, "unexpected result code %q", resp.ResultCode)
	}

	// The status query carries no receipt metadata; a successful payment is
	// finalized with full details by the callback path whenever it arrives.
	return s.transactions.Resolve(ctx, ResolveParams{
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        code,
		ResultDescription: resp.ResultDesc,
	})
}

// SaveCallback applies an asynchronous provider result. Duplicate deliveries
// of the same outcome are no-ops.
func (s *Service) SaveCallback(ctx context.Context, cb StkCallback) (*Transaction, error) {
	p := ResolveParams{
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDescription: cb.ResultDesc,
	}

	if cb.ResultCode == ResultSuccess {
		meta, err := DecodeCallbackMetadata(cb.CallbackMetadata.Item)
		if err != nil {
			return nil, errors.Wrap(err, "decode callback metadata")
		}
		p.ReceiptNumber = meta.ReceiptNumber
		p.Amount = meta.Amount
		p.PhoneNumber = meta.PhoneNumber
		p.TransactionDate = meta.TransactionDate
	}

	t, err := s.transactions.Resolve(ctx, p)
	if err != nil {
		if errors.Is(err, ErrConflictingResult) {
			zctx.From(ctx).Warn("Conflicting callback result ignored",
				zap.String("checkout_request_id", cb.CheckoutRequestID),
				zap.Int("result_code", cb.ResultCode),
			)
		}
		return nil, err
	}
	return t, nil
}
