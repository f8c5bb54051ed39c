package payment

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Poller periodically re-queries the provider for transactions stuck in the
// pending state, picking up results whose callbacks never arrived.
type Poller struct {
	svc          *Service
	transactions Repository
	interval     time.Duration
}

// NewPoller creates a Poller. A non-positive interval defaults to one minute.
func NewPoller(svc *Service, transactions Repository, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{svc: svc, transactions: transactions, interval: interval}
}

// Run polls until ctx is cancelled. Ticks never overlap: the ticker fires
// only after the previous tick's work returned.
func (p *Poller) Run(ctx context.Context) {
	lg := zctx.From(ctx)
	lg.Info("Payment poller started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("Payment poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick re-queries every pending transaction. Each one is processed
// independently; a failure is logged and does not abort the rest.
func (p *Poller) tick(ctx context.Context) {
	lg := zctx.From(ctx)

	pending, err := p.transactions.ListPending(ctx)
	if err != nil {
		lg.Error("List pending transactions", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}
	lg.Debug("Reconciling pending transactions", zap.Int("count", len(pending)))

	for _, t := range pending {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.svc.QuerySTK(ctx, t.CheckoutRequestID); err != nil {
			lg.Warn("Reconcile transaction",
				zap.String("checkout_request_id", t.CheckoutRequestID),
				zap.Error(err),
			)
		}
	}
}
