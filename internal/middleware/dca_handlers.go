package middleware

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/gin-gonic/gin"
)

// EvaluateDca evalúa las reglas DCA de una billetera contra el snapshot de
// precios vigente. Las candidatas emitidas se persisten acá, porque el
// motor nunca persiste nada por sí mismo.
func EvaluateDca(c *gin.Context) {
	walletID := c.Param("id")

	snapshot, ok := priceMonitor.Snapshot()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Todavía no hay precios disponibles"})
		return
	}

	candidates, failures, err := walletService.EvaluateDcaRules(walletID, snapshot, time.Now().UTC())
	if err != nil {
		var noWallets *models.NoWalletsError
		if errors.As(err, &noWallets) {
			c.JSON(http.StatusNotFound, gin.H{"error": noWallets.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al evaluar las reglas DCA"})
		return
	}

	persisted := make([]models.Transaction, 0, len(candidates))
	for i := range candidates {
		if err := txRepo.Create(&candidates[i]); err != nil {
			log.Printf("Error al persistir la compra DCA %s: %v", candidates[i].ID, err)
			continue
		}
		persisted = append(persisted, candidates[i])
	}

	failureMessages := make([]string, 0, len(failures))
	for _, failure := range failures {
		failureMessages = append(failureMessages, failure.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_id":    walletID,
		"transactions": persisted,
		"errors":       failureMessages,
		"stale_price":  snapshot.Stale,
	})
}
