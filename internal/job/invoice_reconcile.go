package job

import (
	"context"
	"sync"
	"time"

	"tgwallet/internal/metrics"
	"tgwallet/internal/model"
	"tgwallet/internal/repository"
	"tgwallet/internal/service"

	"go.uber.org/zap"
)

// InvoiceReconcileJob settles CREATED invoices whose postback never arrived.
type InvoiceReconcileJob struct {
	invoices  repository.InvoiceStore
	topUps    *service.TopUpService
	metrics   *metrics.Metrics
	logger    *zap.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
	interval  time.Duration
	grace     time.Duration
	batchSize int
	now       func() time.Time
}

func NewInvoiceReconcileJob(
	invoices repository.InvoiceStore,
	topUps *service.TopUpService,
	interval, grace time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *InvoiceReconcileJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &InvoiceReconcileJob{
		invoices:  invoices,
		topUps:    topUps,
		metrics:   m,
		logger:    logger.Named("reconcile"),
		stopCh:    make(chan struct{}),
		interval:  interval,
		grace:     grace,
		batchSize: 100,
		now:       time.Now,
	}
}

func (j *InvoiceReconcileJob) Start(ctx context.Context) {
	j.logger.Info("Invoice reconcile job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Invoice reconcile job exiting")
			return
		case <-j.stopCh:
			j.logger.Info("Invoice reconcile job stopped")
			return
		case <-ticker.C:
			j.reconcileInvoices(ctx)
		}
	}
}

func (j *InvoiceReconcileJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

func (j *InvoiceReconcileJob) reconcileInvoices(ctx context.Context) {
	invoices, err := j.invoices.ListInvoicesByStatus(ctx, model.InvoiceStatusCreated, j.now().Add(-j.grace), j.batchSize)
	if err != nil {
		j.logger.Error("Failed to load open invoices", zap.Error(err))
		return
	}

	if len(invoices) == 0 {
		return
	}

	settled := 0
	for _, invoice := range invoices {
		outcome, err := j.topUps.Reconcile(ctx, invoice)
		j.metrics.RecordReconciled(outcome)
		if err != nil {
			j.logger.Warn("Failed to reconcile invoice", zap.String("order_id", invoice.OrderID), zap.Error(err))
			continue
		}
		if outcome != service.ReconcilePending {
			settled++
			j.logger.Info("Invoice reconciled",
				zap.String("order_id", invoice.OrderID),
				zap.Int64("user_id", invoice.UserID),
				zap.String("outcome", outcome),
			)
		}
	}

	j.logger.Info("Reconcile pass done", zap.Int("open", len(invoices)), zap.Int("settled", settled))
}
