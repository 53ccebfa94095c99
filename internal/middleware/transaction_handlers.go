package middleware

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/dcawallet/dca-wallet/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateTransaction agrega una transacción al ledger de una billetera
func CreateTransaction(c *gin.Context) {
	var tx models.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := walletRepo.Get(tx.WalletID); err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Billetera no encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener la billetera"})
		return
	}

	tx.ID = uuid.NewString()
	if tx.Currency == "" {
		tx.Currency = "USD"
	}
	// Si no se proporciona fecha, usar la actual
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = time.Now().UTC()
	}
	tx.CreatedAt = time.Now().UTC()

	// Calcular el total cuando no viene en el pedido
	if tx.TotalValue.IsZero() {
		tx.TotalValue = tx.AmountBTC.Mul(tx.PricePerUnit)
	}

	// Un total que no cierra con amount * price no bloquea la ingesta: el
	// ledger excluirá la entrada del balance y la reportará en el replay
	if err := tx.CheckConsistency(); err != nil {
		log.Printf("Transacción %s creada con total inconsistente: %v", tx.ID, err)
	}

	if err := txRepo.Create(&tx); err != nil {
		var invalid *models.ValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear la transacción"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Transacción creada exitosamente",
		"transaction": tx,
	})
}

// GetWalletTransactions devuelve el ledger completo de una billetera,
// ordenado por fecha ascendente
func GetWalletTransactions(c *gin.Context) {
	walletID := c.Param("id")

	if _, err := walletRepo.Get(walletID); err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Billetera no encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener la billetera"})
		return
	}

	transactions, err := txRepo.ListByWallet(walletID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener las transacciones"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
