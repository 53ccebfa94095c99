package currency

import "github.com/dcawallet/dca-wallet/internal/models"

// TableFromSnapshot deriva la tabla de tasas del snapshot de precios
// vigente: la tasa USD/BRL viene calculada a partir de los precios de BTC
// en ambas monedas. Solo se almacena la pierna directa; el recíproco lo
// resuelve el conversor.
func TableFromSnapshot(snapshot models.PriceSnapshot) RateTable {
	table := make(RateTable)
	if !snapshot.UsdBrlRate.IsZero() {
		table[Pivot+"/BRL"] = snapshot.UsdBrlRate
	}
	return table
}
