package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/dcawallet/dca-wallet/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetBalance devuelve el balance de BTC de una billetera hasta un corte
// opcional (?at=RFC3339, por defecto ahora). Las entradas inconsistentes
// excluidas del balance se reportan junto con el resultado.
func GetBalance(c *gin.Context) {
	walletID := c.Param("id")

	cutoff := time.Now().UTC()
	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha de corte inválida, se espera RFC3339"})
			return
		}
		cutoff = parsed
	}

	balance, reports, err := walletService.ComputeBalance(walletID, cutoff)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Billetera no encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al calcular el balance"})
		return
	}

	inconsistent := make([]string, 0, len(reports))
	for _, report := range reports {
		inconsistent = append(inconsistent, report.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_id":            walletID,
		"balance_btc":          balance,
		"as_of":                cutoff,
		"inconsistent_entries": inconsistent,
	})
}

// GetValuation devuelve la serie de valuación de una billetera en una o
// más monedas (?currency=USD,BRL). Las monedas que fallan no impiden que
// las demás se devuelvan: los errores vienen junto con los resultados
// parciales.
func GetValuation(c *gin.Context) {
	walletID := c.Param("id")
	timespan := c.DefaultQuery("range", "30d")
	currencies := strings.Split(c.DefaultQuery("currency", "USD"), ",")

	series, failures, err := walletService.ComputeValuationSeries(walletID, timespan, currencies)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Billetera no encontrada"})
			return
		}
		var invalid *models.ValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al calcular la valuación"})
		return
	}

	failureMessages := make(map[string]string, len(failures))
	for cur, failure := range failures {
		failureMessages[cur] = failure.Error()
	}

	// El resumen acompaña a la serie; si no puede calcularse la serie se
	// devuelve igual
	summary, err := walletService.ComputePerformanceSummary(walletID, timespan)
	if err != nil {
		log.Printf("Error al calcular el resumen de desempeño de la billetera %s: %v", walletID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_id": walletID,
		"range":     timespan,
		"series":    series,
		"summary":   summary,
		"errors":    failureMessages,
	})
}

// GetLiveValuation devuelve la valuación en vivo cacheada por el monitor
func GetLiveValuation(c *gin.Context) {
	walletID := c.Param("id")

	valuation, exists := priceMonitor.GetCachedValuation(walletID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todavía no hay valuación en caché para la billetera"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valuation": valuation})
}

// Convert convierte un monto entre monedas usando la tabla pivoteada en USD
func Convert(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Monto inválido"})
		return
	}
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Los parámetros from y to son obligatorios"})
		return
	}

	converted, err := walletService.Convert(amount, from, to)
	if err != nil {
		var unavailable *models.RateUnavailableError
		if errors.As(err, &unavailable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": unavailable.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"converted": converted,
	})
}

// GetPrice devuelve el snapshot de precios vigente, incluyendo la marca de
// stale cuando el feed no responde
func GetPrice(c *gin.Context) {
	snapshot, ok := priceMonitor.Snapshot()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Todavía no hay precios disponibles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": snapshot})
}
