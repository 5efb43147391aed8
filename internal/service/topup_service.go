package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tgwallet/internal/config"
	"tgwallet/internal/infrastructure/lock"
	"tgwallet/internal/metrics"
	"tgwallet/internal/model"
	"tgwallet/internal/repository"
	"tgwallet/pkg/cryptocloud"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TopUpDescription is written on every credited ledger entry.
const TopUpDescription = "Пополнение баланса"

const webhookStatusSuccess = "success"

// Reconcile outcomes.
const (
	ReconcileCredited  = "credited"
	ReconcileReplayed  = "replayed"
	ReconcileExpired   = "expired"
	ReconcileCancelled = "cancelled"
	ReconcilePending   = "pending"
)

type TopUpService struct {
	store   repository.Store
	guard   userGuard
	gateway cryptocloud.Gateway
	events  *EventFactory
	cfg     *config.BusinessConfig
	secret  string
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewTopUpService(
	store repository.Store,
	locker lock.Locker,
	gateway cryptocloud.Gateway,
	events *EventFactory,
	cfg *config.BusinessConfig,
	webhookSecret string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TopUpService {
	return &TopUpService{
		store:   store,
		guard:   userGuard{locker: locker, timeout: cfg.OperationTimeout, metrics: m},
		gateway: gateway,
		events:  events,
		cfg:     cfg,
		secret:  webhookSecret,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

type CreateInvoiceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	UserID int64           `json:"userId" binding:"required,gt=0"`
}

// WebhookRequest is the processor's postback. It arrives form-encoded or as JSON.
// The JSON amount may be a number or a numeric string; form posts fill it from
// "amount", falling back to "amount_crypto".
type WebhookRequest struct {
	Status    string          `form:"status" json:"status"`
	InvoiceID string          `form:"invoice_id" json:"invoice_id"`
	Amount    decimal.Decimal `form:"-" json:"amount"`
	Currency  string          `form:"currency" json:"currency"`
	OrderID   string          `form:"order_id" json:"order_id"`
	Token     string          `form:"token" json:"token"`
}

type WebhookResponse struct {
	Success bool `json:"success"`
}

// NewOrderID builds the processor order id. The user id prefix is what the webhook credits.
func NewOrderID(userID int64, at time.Time) string {
	return fmt.Sprintf("%d_%d", userID, at.UnixMilli())
}

// UserIDFromOrderID returns the user id encoded before the first underscore.
func UserIDFromOrderID(orderID string) (int64, error) {
	prefix, _, found := strings.Cut(orderID, "_")
	if !found || prefix == "" {
		return 0, ErrInvalidOrderID
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidOrderID
	}
	return id, nil
}

// CreateInvoice opens a processor invoice and returns its payload unchanged.
func (s *TopUpService) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (json.RawMessage, error) {
	if req.Amount.LessThan(s.cfg.MinTopUpAmount) {
		return nil, NewServiceError(ErrCodeValidation,
			fmt.Errorf("Minimum amount is %s", s.cfg.MinTopUpAmount.String()))
	}
	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		return nil, storeError(err)
	}

	now := s.now()
	orderID := NewOrderID(req.UserID, now)
	amount, _ := req.Amount.Float64()

	result, err := s.gateway.CreateInvoice(ctx, cryptocloud.CreateInvoiceRequest{
		Amount:  amount,
		OrderID: orderID,
	})
	if err != nil {
		s.metrics.RecordUpstreamFailure("cryptocloud")
		s.logger.Error("Failed to create invoice",
			zap.Int64("user_id", req.UserID),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, NewServiceError(ErrCodeUpstream, ErrInvoiceFailed)
	}

	_, err = s.store.CreateInvoice(ctx, &model.TopUpInvoice{
		OrderID:   orderID,
		UserID:    req.UserID,
		Amount:    req.Amount,
		InvoiceID: result.Invoice.InvoiceID,
		PayURL:    result.Invoice.PayURL,
		Status:    model.InvoiceStatusCreated,
		ExpiresAt: now.Add(s.cfg.InvoiceTTL),
	})
	if err != nil {
		// the pay link is already issued; this order just won't be reconciled
		s.logger.Error("Failed to store invoice", zap.String("order_id", orderID), zap.Error(err))
	}

	s.metrics.RecordInvoiceCreated()
	s.logger.Info("Invoice created",
		zap.Int64("user_id", req.UserID),
		zap.String("order_id", orderID),
		zap.String("amount", req.Amount.String()),
	)
	return result.Raw, nil
}

// HandleWebhook credits a successful payment once per order id. Other statuses and replays
// are acknowledged without touching the balance.
func (s *TopUpService) HandleWebhook(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error) {
	if s.secret != "" {
		if err := cryptocloud.VerifyPostbackToken(s.secret, req.Token); err != nil {
			s.logger.Warn("Rejected postback", zap.String("order_id", req.OrderID), zap.Error(err))
			return nil, NewServiceError(ErrCodeInvalidSignature, errors.New("Invalid postback token"))
		}
	}

	if req.Status != webhookStatusSuccess {
		s.logger.Info("Postback acknowledged",
			zap.String("order_id", req.OrderID),
			zap.String("status", req.Status),
		)
		return &WebhookResponse{Success: true}, nil
	}

	userID, err := UserIDFromOrderID(req.OrderID)
	if err != nil {
		return nil, NewServiceError(ErrCodeValidation, err)
	}
	if !req.Amount.IsPositive() {
		return nil, NewServiceError(ErrCodeValidation, errors.New("Invalid amount"))
	}

	if _, err := s.Credit(ctx, userID, req.Amount, req.OrderID); err != nil {
		return nil, err
	}
	return &WebhookResponse{Success: true}, nil
}

// Credit applies a paid order to the user's balance under the user's lock. It reports whether
// this call credited the balance; false means the order had already been applied.
func (s *TopUpService) Credit(ctx context.Context, userID int64, amount decimal.Decimal, orderID string) (bool, error) {
	var credited bool
	err := s.guard.run(ctx, userID, func(ctx context.Context) error {
		if _, err := s.store.GetUser(ctx, userID); err != nil {
			s.logger.Warn("Top-up for unknown user", zap.Int64("user_id", userID), zap.String("order_id", orderID))
			return storeError(err)
		}

		result, err := s.store.CreditTopUp(ctx, repository.TopUpRecord{
			UserID:      userID,
			Amount:      amount,
			Reference:   orderID,
			Description: TopUpDescription,
			Event:       s.events.TopUp(),
		})
		if err != nil {
			s.logger.Error("Failed to credit top-up",
				zap.Int64("user_id", userID),
				zap.String("order_id", orderID),
				zap.Error(err),
			)
			return storeError(err)
		}
		credited = result.Credited
		return nil
	})
	if err != nil {
		return false, err
	}

	if !credited {
		s.metrics.RecordWebhookReplay()
		s.logger.Info("Top-up already credited", zap.String("order_id", orderID))
		return false, nil
	}

	f, _ := amount.Float64()
	s.metrics.RecordTopUp(f)
	s.logger.Info("Top-up credited",
		zap.Int64("user_id", userID),
		zap.String("order_id", orderID),
		zap.String("amount", amount.String()),
	)
	return true, nil
}

// CheckStatus proxies the processor's view of an order.
func (s *TopUpService) CheckStatus(ctx context.Context, orderID string) (json.RawMessage, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, NewServiceError(ErrCodeValidation, ErrInvalidOrderID)
	}
	result, err := s.gateway.InvoiceStatus(ctx, orderID)
	if err != nil {
		s.metrics.RecordUpstreamFailure("cryptocloud")
		s.logger.Error("Failed to check payment status", zap.String("order_id", orderID), zap.Error(err))
		return nil, NewServiceError(ErrCodeUpstream, ErrStatusFailed)
	}
	return result.Raw, nil
}

// Reconcile settles a CREATED invoice whose postback may have been lost.
func (s *TopUpService) Reconcile(ctx context.Context, invoice *model.TopUpInvoice) (string, error) {
	result, err := s.gateway.InvoiceStatus(ctx, invoice.OrderID)
	if err != nil {
		if s.now().After(invoice.ExpiresAt) {
			return s.closeInvoice(ctx, invoice, model.InvoiceStatusExpired, ReconcileExpired)
		}
		return ReconcilePending, fmt.Errorf("invoice status %s: %w", invoice.OrderID, err)
	}

	switch result.Status.State() {
	case cryptocloud.InvoiceStatePaid:
		credited, err := s.Credit(ctx, invoice.UserID, invoice.Amount, invoice.OrderID)
		if err != nil {
			return ReconcilePending, err
		}
		if credited {
			return ReconcileCredited, nil
		}
		return ReconcileReplayed, nil
	case cryptocloud.InvoiceStateExpired:
		return s.closeInvoice(ctx, invoice, model.InvoiceStatusExpired, ReconcileExpired)
	case cryptocloud.InvoiceStateCanceled:
		return s.closeInvoice(ctx, invoice, model.InvoiceStatusCancelled, ReconcileCancelled)
	}

	if s.now().After(invoice.ExpiresAt) {
		return s.closeInvoice(ctx, invoice, model.InvoiceStatusExpired, ReconcileExpired)
	}
	return ReconcilePending, nil
}

func (s *TopUpService) closeInvoice(ctx context.Context, invoice *model.TopUpInvoice, status, outcome string) (string, error) {
	err := s.store.UpdateInvoiceStatus(ctx, invoice.OrderID, model.InvoiceStatusCreated, status)
	if err != nil && !errors.Is(err, repository.ErrInvoiceStatusInvalid) {
		return ReconcilePending, err
	}
	return outcome, nil
}
