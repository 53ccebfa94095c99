package routes

import (
	"github.com/dcawallet/dca-wallet/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine) {
	// Billeteras y su configuración DCA
	router.POST("/wallets", middleware.CreateWallet)
	router.GET("/wallets", middleware.GetWallets)
	router.GET("/wallets/:id", middleware.GetWallet)
	router.PUT("/wallets/:id/dca", middleware.ConfigureDca)

	// Ledger de transacciones (append-only: sin update ni delete)
	router.POST("/transactions", middleware.CreateTransaction)
	router.GET("/wallets/:id/transactions", middleware.GetWalletTransactions)

	// Balance y valuación
	router.GET("/wallets/:id/balance", middleware.GetBalance)
	router.GET("/wallets/:id/valuation", middleware.GetValuation)
	router.GET("/wallets/:id/live-valuation", middleware.GetLiveValuation)

	// Evaluación de reglas DCA bajo demanda
	router.POST("/wallets/:id/dca/evaluate", middleware.EvaluateDca)

	// Precios y conversión
	router.GET("/price", middleware.GetPrice)
	router.GET("/convert", middleware.Convert)
}
