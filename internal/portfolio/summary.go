package portfolio

import (
	"github.com/dcawallet/dca-wallet/internal/currency"
	"github.com/dcawallet/dca-wallet/internal/ledger"
	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// Summary resume el desempeño del portafolio sobre el rango valuado.
// Todos los montos se expresan en USD.
type Summary struct {
	TotalInvestedUSD      decimal.Decimal `json:"total_invested_usd"`
	FinalBalanceBTC       decimal.Decimal `json:"final_balance_btc"`
	FinalValueUSD         decimal.Decimal `json:"final_value_usd"`
	ProfitLossUSD         decimal.Decimal `json:"profit_loss_usd"`
	ProfitLossPercent     decimal.Decimal `json:"profit_loss_percent"`
	AverageBuyPriceUSD    decimal.Decimal `json:"average_buy_price_usd"`
	BtcPriceStart         decimal.Decimal `json:"btc_price_start"`
	BtcPriceEnd           decimal.Decimal `json:"btc_price_end"`
	BtcPriceChangePercent decimal.Decimal `json:"btc_price_change_percent"`
	MaxValueUSD           decimal.Decimal `json:"max_value_usd"`
	MinValueUSD           decimal.Decimal `json:"min_value_usd"`
	AverageValueUSD       decimal.Decimal `json:"average_value_usd"`
}

var hundred = decimal.NewFromInt(100)

// Summarize calcula el resumen de desempeño a partir del ledger y la serie
// de precios del rango. Lo invertido es la suma firmada de amount * price
// de cada transacción, convertida a USD: las compras suman, las ventas
// restan. Las entradas inconsistentes se excluyen igual que en el balance.
// Con una serie de precios vacía el resumen queda en cero.
func Summarize(txs []models.Transaction, prices []models.PricePoint, table currency.RateTable) (Summary, error) {
	var summary Summary
	if len(prices) == 0 {
		return summary, nil
	}

	seq, err := Series(txs, prices, currency.Pivot, table)
	if err != nil {
		return summary, err
	}
	points := Collect(seq)

	last := prices[len(prices)-1]
	invested := decimal.Zero
	for i := range txs {
		tx := &txs[i]
		if tx.TransactionDate.After(last.Date) {
			break
		}
		if tx.CheckConsistency() != nil {
			continue
		}
		value, err := currency.Convert(tx.AmountBTC.Mul(tx.PricePerUnit), tx.Currency, currency.Pivot, table)
		if err != nil {
			return Summary{}, err
		}
		switch tx.Type {
		case models.TransactionBuy, models.TransactionDcaBuy:
			invested = invested.Add(value)
		case models.TransactionSell:
			invested = invested.Sub(value)
		}
	}

	balance, _ := ledger.BalanceAsOf(txs, last.Date)
	finalValue := balance.Mul(last.PriceUSD)

	summary.TotalInvestedUSD = invested
	summary.FinalBalanceBTC = balance
	summary.FinalValueUSD = finalValue
	summary.ProfitLossUSD = finalValue.Sub(invested)
	if !invested.IsZero() {
		summary.ProfitLossPercent = summary.ProfitLossUSD.Div(invested).Mul(hundred)
	}
	if balance.IsPositive() {
		summary.AverageBuyPriceUSD = invested.Div(balance)
	}

	start := prices[0].PriceUSD
	summary.BtcPriceStart = start
	summary.BtcPriceEnd = last.PriceUSD
	if !start.IsZero() {
		summary.BtcPriceChangePercent = last.PriceUSD.Sub(start).Div(start).Mul(hundred)
	}

	maxValue := points[0].Value
	minValue := points[0].Value
	total := decimal.Zero
	for _, point := range points {
		if point.Value.GreaterThan(maxValue) {
			maxValue = point.Value
		}
		if point.Value.LessThan(minValue) {
			minValue = point.Value
		}
		total = total.Add(point.Value)
	}
	summary.MaxValueUSD = maxValue
	summary.MinValueUSD = minValue
	summary.AverageValueUSD = total.Div(decimal.NewFromInt(int64(len(points))))

	return summary, nil
}
