package service

import (
	"errors"

	"tgwallet/internal/repository"
)

const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeUpstream            = "UPSTREAM_ERROR"
	ErrCodeBusy                = "BUSY"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

var (
	ErrUserNotFound        = errors.New("User not found")
	ErrServiceNotFound     = errors.New("Service not found")
	ErrTransactionNotFound = errors.New("Transaction not found")
	ErrInvoiceNotFound     = errors.New("Invoice not found")
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrServiceUnavailable  = errors.New("Service is not available")
	ErrInvalidSignature    = errors.New("Invalid Telegram data")
	ErrInvalidUserData     = errors.New("Invalid user data")
	ErrInvalidIPAddress    = errors.New("Invalid IP address")
	ErrInvalidPhoneNumber  = errors.New("Invalid phone number")
	ErrInvalidOrderID      = errors.New("Invalid order id")
	ErrBusy                = errors.New("Another operation is in progress, try again")
	ErrIPLookupFailed      = errors.New("Failed to check IP address")
	ErrPhoneLookupFailed   = errors.New("Failed to check phone number")
	ErrInvoiceFailed       = errors.New("Failed to create invoice")
	ErrStatusFailed        = errors.New("Failed to check payment status")
)

// Error carries the public error code next to the cause shown to the client.
type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}

// storeError translates repository sentinels; anything unknown becomes an internal error.
func storeError(err error) error {
	var svcErr Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, repository.ErrUserNotFound):
		return NewServiceError(ErrCodeNotFound, ErrUserNotFound)
	case errors.Is(err, repository.ErrServiceNotFound):
		return NewServiceError(ErrCodeNotFound, ErrServiceNotFound)
	case errors.Is(err, repository.ErrTransactionNotFound):
		return NewServiceError(ErrCodeNotFound, ErrTransactionNotFound)
	case errors.Is(err, repository.ErrInvoiceNotFound):
		return NewServiceError(ErrCodeNotFound, ErrInvoiceNotFound)
	case errors.Is(err, repository.ErrBalanceNotEnough):
		return NewServiceError(ErrCodeInsufficientBalance, ErrInsufficientBalance)
	}
	return NewServiceError(ErrCodeInternal, err)
}

// Code returns the public code of err, ErrCodeInternal for anything that is not an Error.
func Code(err error) string {
	var svcErr Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ErrCodeInternal
}
