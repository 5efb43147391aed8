package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tgwallet/internal/config"
	"tgwallet/internal/infrastructure/lock"
	"tgwallet/internal/metrics"
	"tgwallet/internal/model"
	"tgwallet/internal/repository"
	"tgwallet/pkg/ipapi"
	"tgwallet/pkg/phonecheck"
	"tgwallet/pkg/validate"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	providerIPAPI      = "ipapi"
	providerPhoneCheck = "phonecheck"
)

type PurchaseService struct {
	store   repository.Store
	guard   userGuard
	geo     ipapi.GeoLocator
	phones  phonecheck.Provider
	events  *EventFactory
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewPurchaseService(
	store repository.Store,
	locker lock.Locker,
	geo ipapi.GeoLocator,
	phones phonecheck.Provider,
	events *EventFactory,
	cfg *config.BusinessConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		store:   store,
		guard:   userGuard{locker: locker, timeout: cfg.OperationTimeout, metrics: m},
		geo:     geo,
		phones:  phones,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

type IPCheckRequest struct {
	UserID    int64  `json:"userId" binding:"required,gt=0"`
	IPAddress string `json:"ipAddress" binding:"required"`
}

type IPCheckResponse struct {
	IPCheck       *model.IPCheck  `json:"ipCheck"`
	UserBalance   decimal.Decimal `json:"userBalance"`
	TransactionID int64           `json:"transactionId"`
}

type PhoneCheckRequest struct {
	UserID      int64  `json:"userId" binding:"required,gt=0"`
	PhoneNumber string `json:"phoneNumber" binding:"required,phone"`
}

type PhoneCheckResponse struct {
	PhoneCheck    *model.PhoneCheck `json:"phoneCheck"`
	UserBalance   decimal.Decimal   `json:"userBalance"`
	TransactionID int64             `json:"transactionId"`
}

type PurchaseRequest struct {
	UserID    int64 `json:"userId" binding:"required,gt=0"`
	ServiceID int64 `json:"serviceId" binding:"required,gt=0"`
}

type PurchaseResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message,omitempty"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
	UserBalance *decimal.Decimal   `json:"userBalance,omitempty"`
}

// prepare loads the buyer and the service and rejects the purchase before any provider is paid for.
func (s *PurchaseService) prepare(ctx context.Context, userID int64, svc *model.Service) (*model.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if !svc.Available {
		return nil, NewServiceError(ErrCodeServiceUnavailable, ErrServiceUnavailable)
	}
	if user.Balance.LessThan(svc.Price) {
		return nil, NewServiceError(ErrCodeInsufficientBalance, ErrInsufficientBalance)
	}
	return user, nil
}

func (s *PurchaseService) serviceOfKind(ctx context.Context, kind model.ServiceKind) (*model.Service, error) {
	svc, err := s.store.GetServiceByKind(ctx, kind)
	if err != nil {
		return nil, storeError(err)
	}
	return svc, nil
}

func (s *PurchaseService) record(ctx context.Context, rec repository.PurchaseRecord) (*repository.PurchaseResult, error) {
	rec.Event = s.events.Purchase()
	result, err := s.store.RecordPurchase(ctx, rec)
	if err != nil {
		if !errors.Is(err, repository.ErrBalanceNotEnough) {
			s.logger.Error("Failed to record purchase",
				zap.Int64("user_id", rec.UserID),
				zap.Int64("service_id", rec.Service.ID),
				zap.Error(err),
			)
		}
		return nil, storeError(err)
	}
	return result, nil
}

func (s *PurchaseService) fail(kind model.ServiceKind, err error) error {
	s.metrics.RecordPurchaseError(string(kind), Code(err))
	return err
}

func (s *PurchaseService) BuyIPCheck(ctx context.Context, req *IPCheckRequest) (*IPCheckResponse, error) {
	ip := strings.TrimSpace(req.IPAddress)
	if !validate.IsValidIPAddress(ip) {
		return nil, s.fail(model.ServiceKindIPCheck, NewServiceError(ErrCodeValidation, ErrInvalidIPAddress))
	}

	var resp *IPCheckResponse
	err := s.guard.run(ctx, req.UserID, func(ctx context.Context) error {
		svc, err := s.serviceOfKind(ctx, model.ServiceKindIPCheck)
		if err != nil {
			return err
		}
		if _, err := s.prepare(ctx, req.UserID, svc); err != nil {
			return err
		}

		start := time.Now()
		lookup, err := s.geo.Lookup(ctx, ip)
		s.metrics.ObserveProviderCall(providerIPAPI, time.Since(start).Seconds())
		if err != nil {
			s.metrics.RecordUpstreamFailure(providerIPAPI)
			s.logger.Warn("IP lookup failed", zap.String("ip", ip), zap.Error(err))
			return NewServiceError(ErrCodeUpstream, ErrIPLookupFailed)
		}

		loc := lookup.Location
		check := &model.IPCheck{
			UserID:        req.UserID,
			IPAddress:     ip,
			Country:       nonEmpty(loc.CountryName),
			City:          nonEmpty(loc.City),
			ISP:           nonEmpty(loc.Org),
			IsSpam:        boolPtr(false),
			IsBlacklisted: boolPtr(false),
			Details:       datatypes.JSON(lookup.Raw),
		}

		result, err := s.record(ctx, repository.PurchaseRecord{
			UserID:      req.UserID,
			Service:     svc,
			Description: fmt.Sprintf("%s: %s", svc.Name, ip),
			IPCheck:     check,
		})
		if err != nil {
			return err
		}

		resp = &IPCheckResponse{
			IPCheck:       result.IPCheck,
			UserBalance:   result.User.Balance,
			TransactionID: result.Transaction.ID,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(model.ServiceKindIPCheck, err)
	}

	s.metrics.RecordPurchase(string(model.ServiceKindIPCheck))
	s.logger.Info("IP check purchased",
		zap.Int64("user_id", req.UserID),
		zap.String("ip", ip),
		zap.Int64("transaction_id", resp.TransactionID),
	)
	return resp, nil
}

func (s *PurchaseService) BuyPhoneCheck(ctx context.Context, req *PhoneCheckRequest) (*PhoneCheckResponse, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if !validate.IsValidPhoneNumber(phone) {
		return nil, s.fail(model.ServiceKindPhoneCheck, NewServiceError(ErrCodeValidation, ErrInvalidPhoneNumber))
	}
	phone = validate.NormalizePhone(phone)

	var resp *PhoneCheckResponse
	err := s.guard.run(ctx, req.UserID, func(ctx context.Context) error {
		svc, err := s.serviceOfKind(ctx, model.ServiceKindPhoneCheck)
		if err != nil {
			return err
		}
		if _, err := s.prepare(ctx, req.UserID, svc); err != nil {
			return err
		}

		start := time.Now()
		res, err := s.phones.Check(ctx, phone)
		s.metrics.ObserveProviderCall(providerPhoneCheck, time.Since(start).Seconds())
		if err != nil {
			s.metrics.RecordUpstreamFailure(providerPhoneCheck)
			s.logger.Warn("Phone lookup failed", zap.String("phone", phone), zap.Error(err))
			return NewServiceError(ErrCodeUpstream, ErrPhoneLookupFailed)
		}

		details := res.Raw
		if len(details) == 0 {
			if details, err = json.Marshal(res); err != nil {
				return NewServiceError(ErrCodeInternal, err)
			}
		}

		check := &model.PhoneCheck{
			UserID:      req.UserID,
			PhoneNumber: phone,
			Country:     nonEmpty(res.Country),
			Operator:    nonEmpty(res.Operator),
			IsActive:    boolPtr(res.Active),
			IsSpam:      boolPtr(res.Spam),
			IsVirtual:   boolPtr(res.Virtual),
			FraudScore:  res.FraudScore,
			Details:     datatypes.JSON(details),
		}

		result, err := s.record(ctx, repository.PurchaseRecord{
			UserID:      req.UserID,
			Service:     svc,
			Description: fmt.Sprintf("%s: %s", svc.Name, phone),
			PhoneCheck:  check,
		})
		if err != nil {
			return err
		}

		resp = &PhoneCheckResponse{
			PhoneCheck:    result.PhoneCheck,
			UserBalance:   result.User.Balance,
			TransactionID: result.Transaction.ID,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(model.ServiceKindPhoneCheck, err)
	}

	s.metrics.RecordPurchase(string(model.ServiceKindPhoneCheck))
	s.logger.Info("Phone check purchased",
		zap.Int64("user_id", req.UserID),
		zap.Int64("transaction_id", resp.TransactionID),
	)
	return resp, nil
}

// Purchase buys a catalog service by id. Services with a dedicated flow are only validated
// and the caller is pointed at their endpoint; nothing is debited for them here.
func (s *PurchaseService) Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseResponse, error) {
	var resp *PurchaseResponse
	kind := model.ServiceKindGeneric

	err := s.guard.run(ctx, req.UserID, func(ctx context.Context) error {
		if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
			return storeError(err)
		}
		svc, err := s.store.GetService(ctx, req.ServiceID)
		if err != nil {
			return storeError(err)
		}
		kind = svc.Kind
		if _, err := s.prepare(ctx, req.UserID, svc); err != nil {
			return err
		}

		if svc.HasDedicatedFlow() {
			resp = &PurchaseResponse{Success: true, Message: dedicatedFlowMessage(svc.Kind)}
			return nil
		}

		result, err := s.record(ctx, repository.PurchaseRecord{
			UserID:      req.UserID,
			Service:     svc,
			Description: svc.Name,
		})
		if err != nil {
			return err
		}

		balance := result.User.Balance
		resp = &PurchaseResponse{Success: true, Transaction: result.Transaction, UserBalance: &balance}
		return nil
	})
	if err != nil {
		return nil, s.fail(kind, err)
	}

	if resp.Transaction != nil {
		s.metrics.RecordPurchase(string(kind))
		s.logger.Info("Service purchased",
			zap.Int64("user_id", req.UserID),
			zap.Int64("service_id", req.ServiceID),
			zap.Int64("transaction_id", resp.Transaction.ID),
		)
	}
	return resp, nil
}

func dedicatedFlowMessage(kind model.ServiceKind) string {
	switch kind {
	case model.ServiceKindIPCheck:
		return "Please use the IP check endpoint to perform the check"
	case model.ServiceKindPhoneCheck:
		return "Please use the phone check endpoint to perform the check"
	}
	return ""
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
