package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/dcawallet/dca-wallet/internal/repository"
	"github.com/dcawallet/dca-wallet/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	walletRepo    *repository.WalletRepository
	txRepo        *repository.TransactionRepository
	walletService *services.WalletService
	priceMonitor  *services.PriceMonitor
)

// InitHandlers conecta los handlers con los repositorios y servicios
func InitHandlers(wallets *repository.WalletRepository, transactions *repository.TransactionRepository, service *services.WalletService, monitor *services.PriceMonitor) {
	walletRepo = wallets
	txRepo = transactions
	walletService = service
	priceMonitor = monitor
}

func CreateWallet(c *gin.Context) {
	var wallet models.Wallet
	if err := c.ShouldBindJSON(&wallet); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validar las reglas DCA antes de guardar
	for i := range wallet.DcaSettings {
		if err := wallet.DcaSettings[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	wallet.ID = uuid.NewString()
	if wallet.Currency == "" {
		wallet.Currency = "USD"
	}
	if wallet.DcaSettings == nil {
		wallet.DcaSettings = []models.DcaSetting{}
	}
	wallet.CreatedAt = time.Now().UTC()

	if err := walletRepo.Create(&wallet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear la billetera"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Billetera creada exitosamente",
		"wallet":  wallet,
	})
}

func GetWallets(c *gin.Context) {
	wallets, err := walletRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener las billeteras"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

func GetWallet(c *gin.Context) {
	wallet, err := walletRepo.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Billetera no encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener la billetera"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// ConfigureDca habilita o deshabilita el modo DCA de una billetera y
// reemplaza sus reglas. Al deshabilitar, las reglas se limpian.
func ConfigureDca(c *gin.Context) {
	var payload struct {
		DcaEnabled  *bool               `json:"dca_enabled" binding:"required"`
		DcaSettings []models.DcaSetting `json:"dca_settings"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if *payload.DcaEnabled && payload.DcaSettings == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dca_settings es obligatorio cuando dca_enabled es true"})
		return
	}
	for i := range payload.DcaSettings {
		if err := payload.DcaSettings[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	walletID := c.Param("id")
	if err := walletRepo.UpdateDca(walletID, *payload.DcaEnabled, payload.DcaSettings); err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Billetera no encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al configurar el DCA"})
		return
	}

	wallet, err := walletRepo.Get(walletID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener la billetera"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}
