package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint es un punto de la serie histórica de precios de BTC en USD.
// La serie es ascendente por fecha y tolera huecos.
type PricePoint struct {
	Date     time.Time       `json:"date"`
	PriceUSD decimal.Decimal `json:"price_usd"`
}

// PriceSnapshot es el precio "actual" usado para valuación en vivo y para
// las compuertas de precio de las reglas DCA. Sequence crece de forma
// monótona con cada poll del feed; Stale indica que el feed no respondió
// y el snapshot es el último conocido.
type PriceSnapshot struct {
	BtcUsdPrice decimal.Decimal `json:"btc_usd_price"`
	BtcBrlPrice decimal.Decimal `json:"btc_brl_price"`
	UsdBrlRate  decimal.Decimal `json:"usd_brl_rate"`
	LastUpdated time.Time       `json:"last_updated"`
	Sequence    uint64          `json:"sequence"`
	Stale       bool            `json:"stale"`
}
