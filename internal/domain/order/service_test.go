package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/duka-api/internal/domain/catalog"
)

// stubCatalog serves models from a map; unimplemented methods panic via the
// embedded nil interface.
type stubCatalog struct {
	catalog.Repository
	models map[string]catalog.Model
}

func (s *stubCatalog) GetModels(_ context.Context, ids []string) ([]catalog.Model, error) {
	var out []catalog.Model
	for _, id := range ids {
		if m, ok := s.models[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// memOrderRepo records created orders in memory.
type memOrderRepo struct {
	created []*Order
	failErr error
}

func (r *memOrderRepo) CreateWithStock(_ context.Context, o *Order) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.created = append(r.created, o)
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	for _, o := range r.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memOrderRepo) List(context.Context) ([]Order, error)                 { return nil, nil }
func (r *memOrderRepo) ListByUser(context.Context, string) ([]Order, error)   { return nil, nil }
func (r *memOrderRepo) Cancel(_ context.Context, _ string, _ bool) error      { return nil }
func (r *memOrderRepo) Delete(context.Context, string) error                  { return nil }

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(repo *memOrderRepo) *Service {
	models := &stubCatalog{models: map[string]catalog.Model{
		"m-phone": {ID: "m-phone", ProductID: "p-1", Name: "64GB", Price: price("1000")},
		"m-case":  {ID: "m-case", ProductID: "p-2", Name: "Clear", Price: price("200")},
	}}
	return NewService(models, repo)
}

func TestCreateComputesVATTotals(t *testing.T) {
	repo := &memOrderRepo{}
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), CreateRequest{
		Items: []ItemRequest{
			{ProductModelID: "m-phone", Quantity: 2},
			{ProductModelID: "m-case", Quantity: 1},
		},
		VAT: true,
	})
	require.NoError(t, err)

	assert.True(t, o.Subtotal.Equal(price("2200")), "subtotal %s", o.Subtotal)
	assert.True(t, o.Tax.Equal(price("352")), "tax %s", o.Tax)
	assert.True(t, o.Total.Equal(price("2552")), "total %s", o.Total)
	assert.Equal(t, StatusPending, o.Status)
	require.Len(t, repo.created, 1)
}

func TestCreateWithoutVATHasZeroTax(t *testing.T) {
	svc := newTestService(&memOrderRepo{})

	o, err := svc.Create(context.Background(), CreateRequest{
		Items: []ItemRequest{{ProductModelID: "m-case", Quantity: 3}},
	})
	require.NoError(t, err)

	assert.True(t, o.Tax.IsZero())
	assert.True(t, o.Total.Equal(o.Subtotal))
	assert.True(t, o.Total.Equal(price("600")), "total %s", o.Total)
}

func TestCreateSnapshotsUnitPrices(t *testing.T) {
	svc := newTestService(&memOrderRepo{})

	o, err := svc.Create(context.Background(), CreateRequest{
		Items: []ItemRequest{{ProductModelID: "m-phone", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)

	assert.True(t, o.Items[0].UnitPrice.Equal(price("1000")))
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.NotEmpty(t, o.Items[0].ID)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc := newTestService(&memOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{})
	assert.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	repo := &memOrderRepo{}
	svc := newTestService(repo)

	for _, qty := range []int{0, -1} {
		_, err := svc.Create(context.Background(), CreateRequest{
			Items: []ItemRequest{{ProductModelID: "m-phone", Quantity: qty}},
		})
		var qtyErr *InvalidQuantityError
		require.ErrorAs(t, err, &qtyErr)
		assert.Equal(t, "m-phone", qtyErr.ProductModelID)
	}
	assert.Empty(t, repo.created)
}

func TestCreateRejectsUnknownModel(t *testing.T) {
	repo := &memOrderRepo{}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		Items: []ItemRequest{
			{ProductModelID: "m-phone", Quantity: 1},
			{ProductModelID: "m-ghost", Quantity: 1},
		},
	})
	var modelErr *ModelNotFoundError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, "m-ghost", modelErr.ProductModelID)
	assert.Empty(t, repo.created)
}

func TestCreatePropagatesStockError(t *testing.T) {
	stockErr := &InsufficientStockError{ProductModelID: "m-phone", Requested: 5, Available: 2}
	svc := newTestService(&memOrderRepo{failErr: stockErr})

	_, err := svc.Create(context.Background(), CreateRequest{
		Items: []ItemRequest{{ProductModelID: "m-phone", Quantity: 5}},
	})
	var got *InsufficientStockError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 2, got.Available)
}
