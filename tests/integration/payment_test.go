package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/domain/payment"
	"github.com/xenking/duka-api/internal/repository"
)

// seedTransaction places an order and records a pending push against it.
func seedTransaction(t *testing.T, pool *pgxpool.Pool) (orderID, checkoutRequestID string) {
	t.Helper()
	ctx := context.Background()

	modelID := seedModel(t, pool, "2200", 5)
	svc := order.NewService(repository.NewCatalogRepository(pool), repository.NewOrderRepository(pool))
	o, err := svc.Create(ctx, order.CreateRequest{
		Customer: order.Customer{Name: "Jane", Email: "jane@example.com", Phone: "254712345678"},
		Items:    []order.ItemRequest{{ProductModelID: modelID, Quantity: 1}},
		VAT:      true,
	})
	require.NoError(t, err)

	checkoutRequestID = "ws_CO_" + uuid.New().String()
	txRepo := repository.NewTransactionRepository(pool)
	require.NoError(t, txRepo.Create(ctx, &payment.Transaction{
		ID:                uuid.New().String(),
		OrderID:           o.ID,
		MerchantRequestID: uuid.New().String(),
		CheckoutRequestID: checkoutRequestID,
		Amount:            o.Total,
		PhoneNumber:       "254712345678",
	}))
	return o.ID, checkoutRequestID
}

func TestResolveSuccessMarksOrderAwaitingShipment(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	orderID, checkoutID := seedTransaction(t, pool)

	txRepo := repository.NewTransactionRepository(pool)
	resolved, err := txRepo.Resolve(context.Background(), payment.ResolveParams{
		CheckoutRequestID: checkoutID,
		ResultCode:        payment.ResultSuccess,
		ResultDescription: "Processed successfully",
		ReceiptNumber:     "QK12XYZ789",
		Amount:            decimal.RequireFromString("2552"),
		PhoneNumber:       "254712345678",
		TransactionDate:   "20260829143015",
	})
	require.NoError(t, err)

	assert.True(t, resolved.Succeeded())
	assert.Equal(t, "QK12XYZ789", *resolved.ReceiptNumber)

	o, err := repository.NewOrderRepository(pool).GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusAwaitingShipment, o.Status)
}

func TestResolveFailureLeavesOrderPending(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	orderID, checkoutID := seedTransaction(t, pool)

	txRepo := repository.NewTransactionRepository(pool)
	resolved, err := txRepo.Resolve(context.Background(), payment.ResolveParams{
		CheckoutRequestID: checkoutID,
		ResultCode:        1032,
		ResultDescription: "Request cancelled by user",
	})
	require.NoError(t, err)

	assert.True(t, resolved.Resolved())
	assert.False(t, resolved.Succeeded())

	o, err := repository.NewOrderRepository(pool).GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
}

func TestResolveIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	_, checkoutID := seedTransaction(t, pool)

	txRepo := repository.NewTransactionRepository(pool)
	params := payment.ResolveParams{
		CheckoutRequestID: checkoutID,
		ResultCode:        payment.ResultSuccess,
		ResultDescription: "Processed successfully",
		ReceiptNumber:     "QK12XYZ789",
		TransactionDate:   "20260829143015",
	}

	first, err := txRepo.Resolve(context.Background(), params)
	require.NoError(t, err)
	second, err := txRepo.Resolve(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, *first.ReceiptNumber, *second.ReceiptNumber)
	assert.Equal(t, *first.ResultCode, *second.ResultCode)
}

func TestResolveConflictingOutcomeRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	_, checkoutID := seedTransaction(t, pool)

	txRepo := repository.NewTransactionRepository(pool)
	_, err := txRepo.Resolve(context.Background(), payment.ResolveParams{
		CheckoutRequestID: checkoutID,
		ResultCode:        payment.ResultSuccess,
		ReceiptNumber:     "QK12XYZ789",
	})
	require.NoError(t, err)

	_, err = txRepo.Resolve(context.Background(), payment.ResolveParams{
		CheckoutRequestID: checkoutID,
		ResultCode:        1037,
		ResultDescription: "Timeout in completing transaction",
	})
	assert.ErrorIs(t, err, payment.ErrConflictingResult)
}

func TestQueryThenCallbackFillsReceipt(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	orderID, checkoutID := seedTransaction(t, pool)

	txRepo := repository.NewTransactionRepository(pool)

	// The poller's status query resolves success without a receipt.
	afterQuery, err := txRepo.Resolve(context.Background(), payment.ResolveParams{
		CheckoutRequestID: checkoutID,
		ResultCode:        payment.ResultSuccess,
		ResultDescription: "Processed successfully",
	})
	require.NoError(t, err)
	assert.True(t, afterQuery.Resolved())
	assert.Nil(t, afterQuery.ReceiptNumber)

	// Without a receipt the order stays pending.
	o, err := repository.NewOrderRepository(pool).GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)

	// The late callback completes the record and flips the order.
	afterCallback, err := txRepo.Resolve(context.Background(), payment.ResolveParams{
		CheckoutRequestID: checkoutID,
		ResultCode:        payment.ResultSuccess,
		ResultDescription: "Processed successfully",
		ReceiptNumber:     "QK12XYZ789",
		TransactionDate:   "20260829143015",
	})
	require.NoError(t, err)
	assert.True(t, afterCallback.Succeeded())

	o, err = repository.NewOrderRepository(pool).GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusAwaitingShipment, o.Status)
}

func TestResolveUnknownTransactionNeverCreatesRow(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)

	txRepo := repository.NewTransactionRepository(pool)
	_, err := txRepo.Resolve(context.Background(), payment.ResolveParams{
		CheckoutRequestID: "ws_CO_ghost",
		ResultCode:        payment.ResultSuccess,
		ReceiptNumber:     "QK12XYZ789",
	})
	assert.ErrorIs(t, err, payment.ErrTransactionNotFound)

	_, err = txRepo.GetByCheckoutRequestID(context.Background(), "ws_CO_ghost")
	assert.ErrorIs(t, err, payment.ErrTransactionNotFound)
}

func TestDuplicateCheckoutRequestIDRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	orderID, checkoutID := seedTransaction(t, pool)

	txRepo := repository.NewTransactionRepository(pool)
	err := txRepo.Create(context.Background(), &payment.Transaction{
		ID:                uuid.New().String(),
		OrderID:           orderID,
		MerchantRequestID: uuid.New().String(),
		CheckoutRequestID: checkoutID,
		Amount:            decimal.NewFromInt(1),
		PhoneNumber:       "254712345678",
	})
	require.Error(t, err, "checkout_request_id is unique")
}
