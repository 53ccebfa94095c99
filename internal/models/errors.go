package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError indica una entrada malformada, rechazada antes de llegar
// al ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entrada inválida (%s): %s", e.Field, e.Reason)
}

// InconsistentEntryError indica una transacción cuyo total no coincide con
// amount * price. La entrada se excluye del balance y se reporta; el replay
// del ledger continúa.
type InconsistentEntryError struct {
	TransactionID string
	AmountBTC     decimal.Decimal
	PricePerUnit  decimal.Decimal
	TotalValue    decimal.Decimal
}

func (e *InconsistentEntryError) Error() string {
	return fmt.Sprintf("transacción %s inconsistente: %s * %s no coincide con el total %s",
		e.TransactionID, e.AmountBTC, e.PricePerUnit, e.TotalValue)
}

// RateUnavailableError indica que no existe un camino convertible hacia el
// pivote para el par de monedas requerido.
type RateUnavailableError struct {
	From string
	To   string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no hay tasa de cambio disponible para %s -> %s", e.From, e.To)
}

// NoWalletsError indica que no hay billeteras sobre las cuales evaluar.
type NoWalletsError struct{}

func (e *NoWalletsError) Error() string {
	return "no se encontraron billeteras para evaluar"
}
