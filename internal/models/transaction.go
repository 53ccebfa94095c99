package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType es el tipo cerrado de transacciones soportadas
type TransactionType string

const (
	TransactionBuy    TransactionType = "buy"
	TransactionSell   TransactionType = "sell"
	TransactionDcaBuy TransactionType = "dca_buy"
)

// Valid indica si el tipo de transacción es uno de los soportados
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionBuy, TransactionSell, TransactionDcaBuy:
		return true
	}
	return false
}

// consistencyEpsilon es la tolerancia relativa para el invariante
// |total - amount*price| <= epsilon * |amount*price|
var consistencyEpsilon = decimal.New(1, -6)

type Transaction struct {
	ID              string          `json:"id"`
	WalletID        string          `json:"wallet_id"`
	Type            TransactionType `json:"type" binding:"required"`
	AmountBTC       decimal.Decimal `json:"amount_btc" binding:"required"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit" binding:"required"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Currency        string          `json:"currency"`
	Notes           string          `json:"notes,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Validate rechaza transacciones malformadas antes de que entren al ledger.
// Una transacción que no pasa esta validación nunca debe persistirse.
func (tx *Transaction) Validate() error {
	if !tx.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "tipo de transacción desconocido: " + string(tx.Type)}
	}
	if !tx.AmountBTC.IsPositive() {
		return &ValidationError{Field: "amount_btc", Reason: "la cantidad debe ser mayor que cero"}
	}
	if !tx.PricePerUnit.IsPositive() {
		return &ValidationError{Field: "price_per_unit", Reason: "el precio debe ser mayor que cero"}
	}
	if tx.Currency == "" {
		return &ValidationError{Field: "currency", Reason: "la moneda es obligatoria"}
	}
	return nil
}

// CheckConsistency verifica el invariante amount * price == total dentro de
// la tolerancia relativa. Una entrada inconsistente se excluye del balance
// pero no aborta el replay completo.
func (tx *Transaction) CheckConsistency() error {
	expected := tx.AmountBTC.Mul(tx.PricePerUnit)
	diff := tx.TotalValue.Sub(expected).Abs()
	tolerance := expected.Abs().Mul(consistencyEpsilon)
	if diff.GreaterThan(tolerance) {
		return &InconsistentEntryError{
			TransactionID: tx.ID,
			AmountBTC:     tx.AmountBTC,
			PricePerUnit:  tx.PricePerUnit,
			TotalValue:    tx.TotalValue,
		}
	}
	return nil
}
