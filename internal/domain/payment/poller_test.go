package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/duka-api/internal/mpesa"
)

func TestPollerTickResolvesPending(t *testing.T) {
	gw := &mockGateway{queryResp: &mpesa.STKQueryResponse{
		ResultCode: "0",
		ResultDesc: "Processed successfully",
	}}
	repo := newMemTxRepo()
	repo.rows["checkout-1"] = &Transaction{CheckoutRequestID: "checkout-1"}
	repo.rows["checkout-2"] = &Transaction{CheckoutRequestID: "checkout-2"}

	svc := NewService(gw, repo, &stubOrders{})
	p := NewPoller(svc, repo, 0)

	p.tick(context.Background())

	assert.Equal(t, 2, gw.queryCalls)
	pending, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPollerTickSkipsResolved(t *testing.T) {
	gw := &mockGateway{}
	repo := newMemTxRepo()
	code := 1032
	repo.rows["checkout-1"] = &Transaction{CheckoutRequestID: "checkout-1", ResultCode: &code}

	p := NewPoller(NewService(gw, repo, &stubOrders{}), repo, 0)
	p.tick(context.Background())

	assert.Zero(t, gw.queryCalls)
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	repo := newMemTxRepo()
	p := NewPoller(NewService(&mockGateway{}, repo, &stubOrders{}), repo, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}
