package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidSignature    = "INVALID_SIGNATURE"
	CodeUpstream            = "UPSTREAM_ERROR"
	CodeBusy                = "BUSY"
	CodeInternal            = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeValidation:          http.StatusBadRequest,
	CodeNotFound:            http.StatusNotFound,
	CodeInsufficientBalance: http.StatusBadRequest,
	CodeServiceUnavailable:  http.StatusBadRequest,
	CodeInvalidSignature:    http.StatusUnauthorized,
	CodeUpstream:            http.StatusBadGateway,
	CodeBusy:                http.StatusTooManyRequests,
	CodeInternal:            http.StatusInternalServerError,
}

// ErrorBody is the shape of every failed response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Raw writes an upstream JSON payload unchanged.
func Raw(c *gin.Context, payload []byte) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func Error(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatus(code), ErrorBody{Message: message, Code: code})
}

func ValidationError(c *gin.Context, message string) {
	Error(c, CodeValidation, message)
}

func InternalError(c *gin.Context) {
	Error(c, CodeInternal, "Internal server error")
}
