package handler

import (
	"strconv"
	"strings"

	"tgwallet/internal/service"
	"tgwallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler exposes the wallet operations over HTTP.
type Handler struct {
	accountService     *service.AccountService
	catalogService     *service.CatalogService
	transactionService *service.TransactionService
	topUpService       *service.TopUpService
	purchaseService    *service.PurchaseService
	logger             *zap.Logger
}

func NewHandler(
	accountService *service.AccountService,
	catalogService *service.CatalogService,
	transactionService *service.TransactionService,
	topUpService *service.TopUpService,
	purchaseService *service.PurchaseService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		accountService:     accountService,
		catalogService:     catalogService,
		transactionService: transactionService,
		topUpService:       topUpService,
		purchaseService:    purchaseService,
		logger:             logger,
	}
}

// fail writes err with the status of its code. Internal causes are logged, never shown.
func (h *Handler) fail(c *gin.Context, err error) {
	code := service.Code(err)
	if code == service.ErrCodeInternal {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err),
		)
		response.InternalError(c)
		return
	}
	response.Error(c, code, err.Error())
}

func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.ValidationError(c, name+" is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// ============================================================
// Account
// ============================================================

// Auth verifies the mini-app launch data and returns the wallet user.
// POST /api/auth
func (h *Handler) Auth(c *gin.Context) {
	var req service.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Init data is required")
		return
	}

	user, err := h.accountService.Authenticate(c.Request.Context(), req.InitData)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

// GetUser GET /api/user?telegramId=xxx
func (h *Handler) GetUser(c *gin.Context) {
	telegramID, ok := queryID(c, "telegramId")
	if !ok {
		return
	}

	user, err := h.accountService.GetUserByTelegramID(c.Request.Context(), telegramID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

// ============================================================
// Catalog and history
// ============================================================

// ListServices GET /api/services
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.catalogService.ListServices(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, services)
}

// ListTransactions GET /api/transactions?userId=xxx
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}

	txns, err := h.transactionService.ListTransactions(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, txns)
}

// GetTransaction GET /api/transactions/:id
func (h *Handler) GetTransaction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ValidationError(c, "Invalid transaction id")
		return
	}

	detail, err := h.transactionService.GetTransactionDetail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, detail)
}

// ============================================================
// Top-ups
// ============================================================

// CreateTopUp opens a payment processor invoice and returns its payload as is.
// POST /api/topup/create
func (h *Handler) CreateTopUp(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingMessage(err))
		return
	}

	payload, err := h.topUpService.CreateInvoice(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Raw(c, payload)
}

// webhookError keeps the {success:false} shape the processor expects on failures.
type webhookError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// TopUpCallback receives the processor postback.
// POST /api/topup/callback
//
// A replayed postback for an already credited order answers 200 and changes nothing.
func (h *Handler) TopUpCallback(c *gin.Context) {
	var req service.WebhookRequest
	if err := bindWebhook(c, &req); err != nil {
		c.AbortWithStatusJSON(response.HTTPStatus(response.CodeValidation),
			webhookError{Message: "Invalid callback payload", Code: response.CodeValidation})
		return
	}

	result, err := h.topUpService.HandleWebhook(c.Request.Context(), &req)
	if err != nil {
		code := service.Code(err)
		message := err.Error()
		if code == service.ErrCodeInternal {
			h.logger.Error("Callback failed", zap.String("order_id", req.OrderID), zap.Error(err))
			message = "Failed to process payment callback"
		}
		c.AbortWithStatusJSON(response.HTTPStatus(code), webhookError{Message: message, Code: code})
		return
	}
	response.Success(c, result)
}

// bindWebhook reads a JSON or form postback. Form posts carry the amount as
// "amount" or, from older processor versions, "amount_crypto".
func bindWebhook(c *gin.Context, req *service.WebhookRequest) error {
	if err := c.ShouldBind(req); err != nil {
		return err
	}
	if c.ContentType() == binding.MIMEJSON {
		return nil
	}
	raw := strings.TrimSpace(c.PostForm("amount"))
	if raw == "" {
		raw = strings.TrimSpace(c.PostForm("amount_crypto"))
	}
	// an unparsable amount stays zero and is rejected only on a successful status
	if amount, err := decimal.NewFromString(raw); err == nil {
		req.Amount = amount
	}
	return nil
}

// TopUpStatus GET /api/topup/status/:orderId
func (h *Handler) TopUpStatus(c *gin.Context) {
	payload, err := h.topUpService.CheckStatus(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Raw(c, payload)
}

// ============================================================
// Purchases
// ============================================================

// CheckIP POST /api/ip/check
func (h *Handler) CheckIP(c *gin.Context) {
	var req service.IPCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingMessage(err))
		return
	}

	result, err := h.purchaseService.BuyIPCheck(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// CheckPhone POST /api/phone/check
func (h *Handler) CheckPhone(c *gin.Context) {
	var req service.PhoneCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingMessage(err))
		return
	}

	result, err := h.purchaseService.BuyPhoneCheck(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// PurchaseService buys a catalog service by id.
// POST /api/service/purchase
func (h *Handler) PurchaseService(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingMessage(err))
		return
	}

	result, err := h.purchaseService.Purchase(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}
