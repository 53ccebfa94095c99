// Package portfolio combina el ledger con la serie histórica de precios
// para producir una serie valuada en la moneda de visualización elegida.
package portfolio

import (
	"iter"
	"time"

	"github.com/dcawallet/dca-wallet/internal/currency"
	"github.com/dcawallet/dca-wallet/internal/ledger"
	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// Point es un punto de la serie de valuación.
type Point struct {
	Date     time.Time       `json:"date"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// Series recorre en paralelo el ledger y la serie de precios, ambos
// ordenados por fecha: en cada punto de precio t calcula
// balance(t) * price_usd(t) y lo convierte a la moneda de visualización.
// El balance se mantiene con un cursor incremental (O(n + m)).
//
// La secuencia devuelta es perezosa, finita y reiniciable: cada recorrido
// crea un cursor nuevo sobre los mismos snapshots inmutables.
//
// La tasa de cambio actual se aplica de manera uniforme a todos los puntos
// históricos; no se usan tasas históricas por punto.
func Series(txs []models.Transaction, prices []models.PricePoint, display string, table currency.RateTable) (iter.Seq[Point], error) {
	rate, err := currency.Rate(currency.Pivot, display, table)
	if err != nil {
		return nil, err
	}
	return func(yield func(Point) bool) {
		cursor := ledger.NewCursor(txs)
		for _, p := range prices {
			balance := cursor.Advance(p.Date)
			value := balance.Mul(p.PriceUSD).Mul(rate)
			if !yield(Point{Date: p.Date, Value: value, Currency: display}) {
				return
			}
		}
	}, nil
}

// Collect materializa una serie completa.
func Collect(seq iter.Seq[Point]) []Point {
	var points []Point
	for p := range seq {
		points = append(points, p)
	}
	return points
}

// SeriesByCurrency valúa el mismo ledger en varias monedas de visualización.
// Las monedas sin tasa disponible fallan de forma individual: se devuelven
// las series que sí pudieron calcularse junto con el error específico de
// cada moneda que falló.
func SeriesByCurrency(txs []models.Transaction, prices []models.PricePoint, currencies []string, table currency.RateTable) (map[string][]Point, map[string]error) {
	series := make(map[string][]Point)
	failures := make(map[string]error)
	for _, cur := range currencies {
		seq, err := Series(txs, prices, cur, table)
		if err != nil {
			failures[cur] = err
			continue
		}
		series[cur] = Collect(seq)
	}
	return series, failures
}
