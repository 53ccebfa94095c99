// Package ledger deriva balances a partir del ledger append-only de
// transacciones. El balance nunca se almacena como total acumulado: siempre
// se recalcula desde las transacciones.
package ledger

import (
	"errors"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// signedAmount devuelve la cantidad de BTC con el signo que aporta al
// balance: las compras suman, las ventas restan.
func signedAmount(tx *models.Transaction) decimal.Decimal {
	switch tx.Type {
	case models.TransactionBuy, models.TransactionDcaBuy:
		return tx.AmountBTC
	case models.TransactionSell:
		return tx.AmountBTC.Neg()
	}
	// Los tipos desconocidos se rechazan en la ingesta; si algo llegó
	// hasta acá no aporta al balance.
	return decimal.Zero
}

// BalanceAsOf suma las cantidades firmadas de las transacciones con fecha
// menor o igual al corte. Las transacciones vienen ordenadas por fecha
// ascendente. Cada entrada se verifica contra el invariante
// amount * price == total; las entradas inconsistentes se excluyen de la
// suma y se devuelven como reportes, sin abortar el replay.
func BalanceAsOf(txs []models.Transaction, cutoff time.Time) (decimal.Decimal, []*models.InconsistentEntryError) {
	cursor := NewCursor(txs)
	balance := cursor.Advance(cutoff)
	return balance, cursor.Reports()
}

// Cursor recorre el ledger ordenado manteniendo un balance incremental.
// Permite valuar una serie de precios en O(n + m) en lugar de recalcular
// el balance completo en cada punto.
type Cursor struct {
	txs     []models.Transaction
	pos     int
	balance decimal.Decimal
	reports []*models.InconsistentEntryError
}

func NewCursor(txs []models.Transaction) *Cursor {
	return &Cursor{txs: txs, balance: decimal.Zero}
}

// Advance consume las transacciones con fecha <= until y devuelve el
// balance acumulado. Los cortes deben avanzar de forma no decreciente.
func (c *Cursor) Advance(until time.Time) decimal.Decimal {
	for c.pos < len(c.txs) {
		tx := &c.txs[c.pos]
		if tx.TransactionDate.After(until) {
			break
		}
		if err := tx.CheckConsistency(); err != nil {
			var inconsistent *models.InconsistentEntryError
			if errors.As(err, &inconsistent) {
				c.reports = append(c.reports, inconsistent)
			}
			c.pos++
			continue
		}
		c.balance = c.balance.Add(signedAmount(tx))
		c.pos++
	}
	return c.balance
}

// Balance devuelve el balance acumulado hasta el último Advance.
func (c *Cursor) Balance() decimal.Decimal {
	return c.balance
}

// Reports devuelve las entradas inconsistentes encontradas hasta ahora.
func (c *Cursor) Reports() []*models.InconsistentEntryError {
	return c.reports
}
