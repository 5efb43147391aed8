package job

import (
	"context"
	"sync"
	"time"

	"tgwallet/internal/infrastructure/mq"
	"tgwallet/internal/metrics"
	"tgwallet/internal/model"
	"tgwallet/internal/repository"

	"go.uber.org/zap"
)

// OutboxSender relays ledger events written by the store to the message broker.
type OutboxSender struct {
	outbox        repository.OutboxStore
	publisher     mq.Publisher
	metrics       *metrics.Metrics
	logger        *zap.Logger
	stopCh        chan struct{}
	stopOnce      sync.Once
	interval      time.Duration
	batchSize     int
	maxRetryCount int
}

func NewOutboxSender(
	outbox repository.OutboxStore,
	publisher mq.Publisher,
	interval time.Duration,
	maxRetryCount int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *OutboxSender {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxSender{
		outbox:        outbox,
		publisher:     publisher,
		metrics:       m,
		logger:        logger.Named("outbox"),
		stopCh:        make(chan struct{}),
		interval:      interval,
		batchSize:     100,
		maxRetryCount: maxRetryCount,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.logger.Info("Outbox sender started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Outbox sender exiting")
			return
		case <-s.stopCh:
			s.logger.Info("Outbox sender stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outbox.ListPendingOutbox(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to load pending messages", zap.Error(err))
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := s.publisher.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)
	s.metrics.RecordOutbox(err == nil)

	if err == nil {
		if updateErr := s.outbox.MarkOutboxSent(ctx, msg.ID); updateErr != nil {
			s.logger.Error("Failed to mark message sent", zap.Int64("id", msg.ID), zap.Error(updateErr))
		} else {
			s.logger.Debug("Message sent",
				zap.Int64("id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.String("key", msg.MessageKey),
			)
		}
		return
	}

	s.logger.Warn("Failed to send message", zap.Int64("id", msg.ID), zap.Int("retry_count", msg.RetryCount), zap.Error(err))

	if err := s.outbox.IncrementOutboxRetry(ctx, msg.ID); err != nil {
		s.logger.Error("Failed to bump retry count", zap.Int64("id", msg.ID), zap.Error(err))
	}

	if msg.RetryCount+1 >= s.maxRetryCount {
		if err := s.outbox.MarkOutboxFailed(ctx, msg.ID); err != nil {
			s.logger.Error("Failed to mark message failed", zap.Int64("id", msg.ID), zap.Error(err))
		} else {
			s.logger.Error("Message exceeded max retries", zap.Int64("id", msg.ID))
		}
	}
}
