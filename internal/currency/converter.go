// Package currency implementa la conversión de monedas a través de un
// único pivote (USD). No se soportan cadenas de conversión más allá del
// pivote.
package currency

import (
	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// Pivot es la moneda pivote por la que se componen todas las tasas cruzadas.
const Pivot = "USD"

// RateTable mapea pares "FROM/TO" (con un lado siempre USD) a su tasa.
// Por ejemplo {"USD/BRL": 5.43} significa que 1 USD vale 5.43 BRL.
type RateTable map[string]decimal.Decimal

var one = decimal.NewFromInt(1)

// legToPivot devuelve la tasa de una moneda hacia USD, usando la entrada
// directa o el recíproco de la inversa cuando solo esa está presente.
func legToPivot(from string, table RateTable) (decimal.Decimal, error) {
	if from == Pivot {
		return one, nil
	}
	if rate, ok := table[from+"/"+Pivot]; ok {
		return rate, nil
	}
	if rate, ok := table[Pivot+"/"+from]; ok && !rate.IsZero() {
		return one.Div(rate), nil
	}
	return decimal.Zero, &models.RateUnavailableError{From: from, To: Pivot}
}

// legFromPivot devuelve la tasa de USD hacia una moneda.
func legFromPivot(to string, table RateTable) (decimal.Decimal, error) {
	if to == Pivot {
		return one, nil
	}
	if rate, ok := table[Pivot+"/"+to]; ok {
		return rate, nil
	}
	if rate, ok := table[to+"/"+Pivot]; ok && !rate.IsZero() {
		return one.Div(rate), nil
	}
	return decimal.Zero, &models.RateUnavailableError{From: Pivot, To: to}
}

// Rate compone la tasa from->to a través del pivote:
// rate(from, to) = rate(from, USD) * rate(USD, to).
func Rate(from, to string, table RateTable) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}
	toPivot, err := legToPivot(from, table)
	if err != nil {
		return decimal.Zero, err
	}
	fromPivot, err := legFromPivot(to, table)
	if err != nil {
		return decimal.Zero, err
	}
	return toPivot.Mul(fromPivot), nil
}

// Convert convierte un monto entre monedas. La conversión de una moneda a
// sí misma es la identidad sin importar el contenido de la tabla.
func Convert(amount decimal.Decimal, from, to string, table RateTable) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rate, err := Rate(from, to, table)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}
