package dca

import (
	"errors"
	"testing"
	"time"

	"github.com/dcawallet/dca-wallet/internal/currency"
	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func dp(value string) *decimal.Decimal {
	parsed := d(value)
	return &parsed
}

func snapshot(priceUSD string) models.PriceSnapshot {
	return models.PriceSnapshot{
		BtcUsdPrice: d(priceUSD),
		LastUpdated: time.Now().UTC(),
	}
}

func usdWallet(settings ...models.DcaSetting) *models.Wallet {
	return &models.Wallet{
		ID:          "w1",
		Label:       "hodl",
		Currency:    "USD",
		DcaEnabled:  true,
		DcaSettings: settings,
	}
}

// 2024-01-01 es lunes: semana ISO 1 de 2024
var monday = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func TestEvaluateWeeklyWithPriceGate(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:        d("100"),
		Currency:      "USD",
		Frequency:     models.FrequencyWeekly,
		PriceRangeMax: dp("50000"),
	})
	table := currency.RateTable{}

	// A 60000 la compuerta rechaza: no se emite nada
	tx, err := engine.Evaluate(wallet, 0, snapshot("60000"), monday, table)
	require.NoError(t, err)
	assert.Nil(t, tx)

	// La regla no disparó, así que puede reintentar en la misma semana:
	// a 40000 la compuerta pasa y se emite la compra
	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.Add(6*time.Hour), table)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, models.TransactionDcaBuy, tx.Type)
	assert.True(t, tx.AmountBTC.Equal(d("0.0025")), "100 / 40000: %s", tx.AmountBTC)
	assert.True(t, tx.PricePerUnit.Equal(d("40000")))
	assert.True(t, tx.TotalValue.Equal(d("100")))
	assert.Equal(t, "USD", tx.Currency)

	// La candidata cumple los invariantes de ingesta
	assert.NoError(t, tx.Validate())
	assert.NoError(t, tx.CheckConsistency())
}

func TestEvaluateAtMostOncePerPeriod(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("50"),
		Currency:  "USD",
		Frequency: models.FrequencyWeekly,
	})
	table := currency.RateTable{}

	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday, table)
	require.NoError(t, err)
	require.NotNil(t, tx)

	// Evaluaciones repetidas dentro de la misma semana no vuelven a disparar
	for _, offset := range []time.Duration{time.Hour, 24 * time.Hour, 6 * 24 * time.Hour} {
		tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.Add(offset), table)
		require.NoError(t, err)
		assert.Nil(t, tx, "no debe disparar de nuevo en la misma semana (+%v)", offset)
	}

	// La semana ISO siguiente vuelve a disparar
	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.AddDate(0, 0, 7), table)
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestEvaluateDailyNewCalendarDay(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("10"),
		Currency:  "USD",
		Frequency: models.FrequencyDaily,
	})
	table := currency.RateTable{}

	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday, table)
	require.NoError(t, err)
	require.NotNil(t, tx)

	// Mismo día calendario, aunque pasen más de 12 horas
	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.Add(13*time.Hour), table)
	require.NoError(t, err)
	assert.Nil(t, tx)

	// Día calendario nuevo
	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.Add(15*time.Hour), table)
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestEvaluateMonthlyNewCalendarMonth(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("200"),
		Currency:  "USD",
		Frequency: models.FrequencyMonthly,
	})
	table := currency.RateTable{}

	jan15 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), jan15, table)
	require.NoError(t, err)
	require.NotNil(t, tx)

	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), jan15.AddDate(0, 0, 15), table)
	require.NoError(t, err)
	assert.Nil(t, tx, "30 de enero sigue siendo el mismo mes")

	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), time.Date(2024, 2, 1, 0, 30, 0, 0, time.UTC), table)
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestEvaluateBiweeklyBoundaryFromFirstFire(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("75"),
		Currency:  "USD",
		Frequency: models.FrequencyBiweekly,
	})
	table := currency.RateTable{}

	// El primer disparo fija el ancla de los períodos de 14 días
	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday, table)
	require.NoError(t, err)
	require.NotNil(t, tx)

	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.AddDate(0, 0, 13), table)
	require.NoError(t, err)
	assert.Nil(t, tx, "día 13 sigue dentro del período")

	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.AddDate(0, 0, 14), table)
	require.NoError(t, err)
	require.NotNil(t, tx, "día 14 cruza el límite")

	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), monday.AddDate(0, 0, 15), table)
	require.NoError(t, err)
	assert.Nil(t, tx, "día 15 ya disparó en este período")
}

func TestEvaluateMinBound(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:        d("100"),
		Currency:      "USD",
		Frequency:     models.FrequencyDaily,
		PriceRangeMin: dp("30000"),
	})
	table := currency.RateTable{}

	tx, err := engine.Evaluate(wallet, 0, snapshot("20000"), monday, table)
	require.NoError(t, err)
	assert.Nil(t, tx)

	tx, err = engine.Evaluate(wallet, 0, snapshot("35000"), monday.Add(time.Hour), table)
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestEvaluateDisabledWalletIsDormant(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("100"),
		Currency:  "USD",
		Frequency: models.FrequencyDaily,
	})
	wallet.DcaEnabled = false
	table := currency.RateTable{}

	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday, table)
	require.NoError(t, err)
	assert.Nil(t, tx)

	// Al rehabilitar, dispara en el período actual; los períodos
	// perdidos no se recuperan (un solo disparo, no uno por día saltado)
	wallet.DcaEnabled = true
	later := monday.AddDate(0, 0, 5)
	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), later, table)
	require.NoError(t, err)
	require.NotNil(t, tx)

	tx, err = engine.Evaluate(wallet, 0, snapshot("40000"), later.Add(time.Hour), table)
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestEvaluateSettingInForeignCurrency(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("500"),
		Currency:  "BRL",
		Frequency: models.FrequencyWeekly,
	})
	table := currency.RateTable{"USD/BRL": d("5")}

	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday, table)
	require.NoError(t, err)
	require.NotNil(t, tx)

	// 500 BRL = 100 USD; 100 / 40000 = 0.0025 BTC
	assert.True(t, tx.AmountBTC.Equal(d("0.0025")), "amount = %s", tx.AmountBTC)
	// El precio por unidad queda en la moneda de la regla
	assert.True(t, tx.PricePerUnit.Equal(d("200000")), "price = %s", tx.PricePerUnit)
	assert.True(t, tx.TotalValue.Equal(d("500")))
	assert.Equal(t, "BRL", tx.Currency)
	assert.NoError(t, tx.CheckConsistency())
}

func TestEvaluateRateUnavailableDoesNotConsumePeriod(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("100"),
		Currency:  "EUR",
		Frequency: models.FrequencyWeekly,
	})

	_, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday, currency.RateTable{})
	require.Error(t, err)
	var unavailable *models.RateUnavailableError
	assert.True(t, errors.As(err, &unavailable))

	// Cuando la tasa aparece, la regla todavía puede disparar en la
	// misma semana porque el fallo no actualizó lastFiredAt
	table := currency.RateTable{"EUR/USD": d("1.1")}
	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday.Add(time.Hour), table)
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestEvaluateZeroPriceSnapshotRejected(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(models.DcaSetting{
		Amount:    d("100"),
		Currency:  "USD",
		Frequency: models.FrequencyDaily,
	})
	table := currency.RateTable{}

	// Sin compuerta de precio nada filtra el snapshot antes de la
	// división: el precio cero se rechaza con un error tipado
	_, err := engine.Evaluate(wallet, 0, models.PriceSnapshot{}, monday, table)
	require.Error(t, err)
	var invalid *models.ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "btc_usd_price", invalid.Field)

	// El rechazo no consume el período
	tx, err := engine.Evaluate(wallet, 0, snapshot("40000"), monday.Add(time.Hour), table)
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestEvaluateWalletRulesAreIndependent(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet(
		models.DcaSetting{
			Amount:        d("100"),
			Currency:      "USD",
			Frequency:     models.FrequencyWeekly,
			PriceRangeMax: dp("30000"), // la compuerta rechaza a 40000
		},
		models.DcaSetting{
			Amount:    d("50"),
			Currency:  "USD",
			Frequency: models.FrequencyWeekly,
		},
	)
	table := currency.RateTable{}

	candidates, failures := engine.EvaluateWallet(wallet, snapshot("40000"), monday, table)
	assert.Empty(t, failures)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].TotalValue.Equal(d("50")))
}

func TestEvaluateSettingIndexOutOfRange(t *testing.T) {
	engine := NewEngine()
	wallet := usdWallet()

	_, err := engine.Evaluate(wallet, 3, snapshot("40000"), monday, currency.RateTable{})
	var invalid *models.ValidationError
	assert.True(t, errors.As(err, &invalid))
}
