package portfolio

import (
	"testing"
	"time"

	"github.com/dcawallet/dca-wallet/internal/currency"
	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeBuyAndSell(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx(models.TransactionBuy, "0.001", "60000", "60", base),
		makeTx(models.TransactionSell, "0.0004", "70000", "28", base.AddDate(0, 0, 1)),
	}
	prices := []models.PricePoint{
		pricePoint(base, "60000"),
		pricePoint(base.AddDate(0, 0, 2), "65000"),
	}

	summary, err := Summarize(txs, prices, currency.RateTable{})
	require.NoError(t, err)

	// Invertido: 60 por la compra menos 28 por la venta
	assert.True(t, summary.TotalInvestedUSD.Equal(d("32")), "invertido = %s", summary.TotalInvestedUSD)
	assert.True(t, summary.FinalBalanceBTC.Equal(d("0.0006")))
	assert.True(t, summary.FinalValueUSD.Equal(d("39")), "0.0006 * 65000: %s", summary.FinalValueUSD)
	assert.True(t, summary.ProfitLossUSD.Equal(d("7")))
	assert.True(t, summary.ProfitLossPercent.Equal(d("21.875")), "7 / 32 * 100: %s", summary.ProfitLossPercent)
	assert.True(t, summary.AverageBuyPriceUSD.Round(2).Equal(d("53333.33")), "32 / 0.0006: %s", summary.AverageBuyPriceUSD)

	assert.True(t, summary.BtcPriceStart.Equal(d("60000")))
	assert.True(t, summary.BtcPriceEnd.Equal(d("65000")))
	assert.True(t, summary.BtcPriceChangePercent.Round(2).Equal(d("8.33")), "cambio = %s", summary.BtcPriceChangePercent)

	// Valores de la serie: 60 en el primer punto, 39 en el último
	assert.True(t, summary.MaxValueUSD.Equal(d("60")))
	assert.True(t, summary.MinValueUSD.Equal(d("39")))
	assert.True(t, summary.AverageValueUSD.Equal(d("49.5")))
}

func TestSummarizeEmptyPricesIsZero(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx(models.TransactionBuy, "1", "60000", "60000", base),
	}

	summary, err := Summarize(txs, nil, currency.RateTable{})
	require.NoError(t, err)
	assert.True(t, summary.TotalInvestedUSD.IsZero())
	assert.True(t, summary.FinalValueUSD.IsZero())
	assert.True(t, summary.MaxValueUSD.IsZero())
}

func TestSummarizeForeignCurrencyInvested(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tx := makeTx(models.TransactionBuy, "0.001", "300000", "300", base)
	tx.Currency = "BRL"
	prices := []models.PricePoint{pricePoint(base, "60000")}
	table := currency.RateTable{"USD/BRL": d("5")}

	summary, err := Summarize([]models.Transaction{tx}, prices, table)
	require.NoError(t, err)

	// 300 BRL invertidos = 60 USD; el valor final también es 60
	assert.True(t, summary.TotalInvestedUSD.Equal(d("60")), "invertido = %s", summary.TotalInvestedUSD)
	assert.True(t, summary.FinalValueUSD.Equal(d("60")))
	assert.True(t, summary.ProfitLossUSD.IsZero())
}

func TestSummarizeSkipsInconsistentEntries(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx(models.TransactionBuy, "0.5", "100", "50", base),
		// amount * price no cierra con el total: se excluye del resumen
		makeTx(models.TransactionBuy, "1", "100", "50", base),
	}
	prices := []models.PricePoint{pricePoint(base.AddDate(0, 0, 1), "200")}

	summary, err := Summarize(txs, prices, currency.RateTable{})
	require.NoError(t, err)

	assert.True(t, summary.TotalInvestedUSD.Equal(d("50")), "invertido = %s", summary.TotalInvestedUSD)
	assert.True(t, summary.FinalBalanceBTC.Equal(d("0.5")))
	assert.True(t, summary.FinalValueUSD.Equal(d("100")))
	assert.True(t, summary.ProfitLossPercent.Equal(d("100")))
}
