package handler

import (
	"agentshield-ledger/internal/adapter/http/middleware"
	"agentshield-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Authorizer     ports.BudgetAuthorizer
	WalletSvc      ports.WalletAdminService
	WALRepo        ports.WALRepository
	HealthCheckers []ports.HealthChecker
	Mode           string // gin mode: debug, release, test
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	budgetHandler := NewBudgetHandler(deps.Authorizer, deps.WALRepo)
	budget := v1.Group("/budget")
	{
		budget.POST("/authorize", budgetHandler.Authorize)
		budget.GET("/charges/:trace_id", budgetHandler.GetCharge)
		budget.POST("/charges/:trace_id/confirm", budgetHandler.Confirm)
		budget.POST("/charges/:trace_id/fail", budgetHandler.Fail)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", walletHandler.Create)
		wallets.POST("/:tenant_id/:scope/:scope_id/topup", walletHandler.Topup)
		wallets.GET("/:tenant_id/:scope/:scope_id/balance", walletHandler.GetBalance)
		wallets.DELETE("/:tenant_id/:scope/:scope_id", walletHandler.Deactivate)
	}

	return r
}
