package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency es la frecuencia de ejecución de una regla DCA
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// DcaSetting es una regla de compra recurrente de una billetera.
// Los límites de rango de precio son opcionales y se expresan en la
// moneda de la regla.
type DcaSetting struct {
	Amount        decimal.Decimal  `json:"amount" binding:"required"`
	Currency      string           `json:"currency" binding:"required"`
	Frequency     Frequency        `json:"frequency" binding:"required"`
	PriceRangeMin *decimal.Decimal `json:"price_range_min,omitempty"`
	PriceRangeMax *decimal.Decimal `json:"price_range_max,omitempty"`
}

// Validate verifica los invariantes de la configuración DCA
func (s *DcaSetting) Validate() error {
	if !s.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "el monto debe ser mayor que cero"}
	}
	if s.Currency == "" {
		return &ValidationError{Field: "currency", Reason: "la moneda es obligatoria"}
	}
	if !s.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Reason: "frecuencia desconocida: " + string(s.Frequency)}
	}
	if s.PriceRangeMin != nil && s.PriceRangeMax != nil && s.PriceRangeMin.GreaterThan(*s.PriceRangeMax) {
		return &ValidationError{Field: "price_range_min", Reason: "el mínimo del rango no puede superar al máximo"}
	}
	return nil
}

type Wallet struct {
	ID          string       `json:"id"`
	Label       string       `json:"label" binding:"required"`
	Currency    string       `json:"currency"`
	DcaEnabled  bool         `json:"dca_enabled"`
	DcaSettings []DcaSetting `json:"dca_settings"`
	CreatedAt   time.Time    `json:"created_at"`
}
