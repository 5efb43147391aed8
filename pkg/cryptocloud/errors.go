package cryptocloud

import (
	"errors"
	"net/http"
)

const (
	ErrCodeBadRequest   = "CRYPTOCLOUD_BAD_REQUEST"
	ErrCodeUnauthorized = "CRYPTOCLOUD_UNAUTHORIZED"
	ErrCodeNotFound     = "CRYPTOCLOUD_NOT_FOUND"
	ErrCodeTimeout      = "CRYPTOCLOUD_TIMEOUT"
	ErrCodeServerError  = "CRYPTOCLOUD_SERVER_ERROR"
	ErrCodeBadToken     = "CRYPTOCLOUD_BAD_TOKEN"
)

var (
	ErrBadRequest   = errors.New(ErrCodeBadRequest)
	ErrUnauthorized = errors.New(ErrCodeUnauthorized)
	ErrNotFound     = errors.New(ErrCodeNotFound)
	ErrTimeout      = errors.New(ErrCodeTimeout)
	ErrServerError  = errors.New(ErrCodeServerError)
	ErrBadToken     = errors.New(ErrCodeBadToken)
)

var statusErrorMap = map[int]error{
	http.StatusBadRequest:   ErrBadRequest,
	http.StatusUnauthorized: ErrUnauthorized,
	http.StatusForbidden:    ErrUnauthorized,
	http.StatusNotFound:     ErrNotFound,
}

func MapStatusToError(statusCode int) error {
	if err, exists := statusErrorMap[statusCode]; exists {
		return err
	}
	return ErrServerError
}
