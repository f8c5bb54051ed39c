package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/repository"
)

func placeOrder(t *testing.T, svc *order.Service, modelID string, qty int) (*order.Order, error) {
	t.Helper()
	return svc.Create(context.Background(), order.CreateRequest{
		Customer: order.Customer{Name: "Jane", Email: "jane@example.com", Phone: "254712345678"},
		Items:    []order.ItemRequest{{ProductModelID: modelID, Quantity: qty}},
		VAT:      true,
	})
}

func TestOrderPlacementDecrementsStock(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "1100", 10)

	svc := order.NewService(repository.NewCatalogRepository(pool), repository.NewOrderRepository(pool))

	o, err := placeOrder(t, svc, modelID, 2)
	require.NoError(t, err)

	assert.Equal(t, 8, stockOf(t, pool, modelID))
	assert.Equal(t, "2200", o.Subtotal.String())
	assert.Equal(t, "352", o.Tax.String())
	assert.Equal(t, "2552", o.Total.String())

	stored, err := repository.NewOrderRepository(pool).GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

func TestOversellLeavesNothingBehind(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "500", 3)

	orderRepo := repository.NewOrderRepository(pool)
	svc := order.NewService(repository.NewCatalogRepository(pool), orderRepo)

	_, err := placeOrder(t, svc, modelID, 5)
	var stockErr *order.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	assert.Equal(t, 3, stockOf(t, pool, modelID), "inventory untouched after rejection")
	orders, err := orderRepo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders, "no order row after rejection")
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "100", 10)

	svc := order.NewService(repository.NewCatalogRepository(pool), repository.NewOrderRepository(pool))

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := placeOrder(t, svc, modelID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded, "exactly the available stock is sold")
	assert.Equal(t, 0, stockOf(t, pool, modelID))
}

func TestCancelRestoresStock(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "100", 10)

	orderRepo := repository.NewOrderRepository(pool)
	svc := order.NewService(repository.NewCatalogRepository(pool), orderRepo)

	o, err := placeOrder(t, svc, modelID, 4)
	require.NoError(t, err)
	require.Equal(t, 6, stockOf(t, pool, modelID))

	require.NoError(t, svc.Cancel(context.Background(), o.ID, true))

	assert.Equal(t, 10, stockOf(t, pool, modelID))
	stored, err := orderRepo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, stored.Status)
}

func TestCancelWithoutRestockKeepsStock(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "100", 10)

	svc := order.NewService(repository.NewCatalogRepository(pool), repository.NewOrderRepository(pool))

	o, err := placeOrder(t, svc, modelID, 4)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), o.ID, false))
	assert.Equal(t, 6, stockOf(t, pool, modelID))
}

func TestRepeatedCancelRestoresStockOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "100", 10)

	svc := order.NewService(repository.NewCatalogRepository(pool), repository.NewOrderRepository(pool))

	o, err := placeOrder(t, svc, modelID, 4)
	require.NoError(t, err)
	require.Equal(t, 6, stockOf(t, pool, modelID))

	require.NoError(t, svc.Cancel(context.Background(), o.ID, true))
	require.NoError(t, svc.Cancel(context.Background(), o.ID, true))

	assert.Equal(t, 10, stockOf(t, pool, modelID), "second cancel is a no-op")
}

func TestDeleteAfterRestockCancelDoesNotRestoreAgain(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "100", 10)

	orderRepo := repository.NewOrderRepository(pool)
	svc := order.NewService(repository.NewCatalogRepository(pool), orderRepo)

	o, err := placeOrder(t, svc, modelID, 4)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), o.ID, true))
	require.Equal(t, 10, stockOf(t, pool, modelID))

	require.NoError(t, svc.Delete(context.Background(), o.ID))

	assert.Equal(t, 10, stockOf(t, pool, modelID), "stock never exceeds the pre-order quantity")
	_, err = orderRepo.GetByID(context.Background(), o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestDeleteAfterPlainCancelRestoresStock(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "100", 10)

	svc := order.NewService(repository.NewCatalogRepository(pool), repository.NewOrderRepository(pool))

	o, err := placeOrder(t, svc, modelID, 4)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), o.ID, false))
	require.Equal(t, 6, stockOf(t, pool, modelID))

	require.NoError(t, svc.Delete(context.Background(), o.ID))
	assert.Equal(t, 10, stockOf(t, pool, modelID))
}

func TestDeleteRestoresStockAndRemovesOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := setupTestDB(t)
	modelID := seedModel(t, pool, "100", 10)

	orderRepo := repository.NewOrderRepository(pool)
	svc := order.NewService(repository.NewCatalogRepository(pool), orderRepo)

	o, err := placeOrder(t, svc, modelID, 3)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), o.ID))

	assert.Equal(t, 10, stockOf(t, pool, modelID))
	_, err = orderRepo.GetByID(context.Background(), o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)
}
