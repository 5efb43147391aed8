package handler

import (
	"net/http"

	"tgwallet/internal/config"
	"tgwallet/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine with every wallet route.
func SetupRouter(h *Handler, cfg *config.ServerConfig, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.Use(m.GinMiddleware())

	api := r.Group("/api")
	{
		api.POST("/auth", h.Auth)
		api.GET("/user", h.GetUser)
		api.GET("/services", h.ListServices)

		api.GET("/transactions", h.ListTransactions)
		api.GET("/transactions/:id", h.GetTransaction)

		topup := api.Group("/topup")
		{
			topup.POST("/create", h.CreateTopUp)
			topup.POST("/callback", h.TopUpCallback)
			topup.GET("/status/:orderId", h.TopUpStatus)
		}

		api.POST("/ip/check", h.CheckIP)
		api.POST("/phone/check", h.CheckPhone)
		api.POST("/service/purchase", h.PurchaseService)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return r, nil
}
