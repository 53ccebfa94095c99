package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Type:         TransactionBuy,
		AmountBTC:    d("0.001"),
		PricePerUnit: d("60000"),
		TotalValue:   d("60"),
		Currency:     "USD",
	}
	assert.NoError(t, valid.Validate())

	// Cantidad no positiva: rechazada en la ingesta, nunca llega al ledger
	zeroAmount := valid
	zeroAmount.AmountBTC = decimal.Zero
	err := zeroAmount.Validate()
	var invalid *ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "amount_btc", invalid.Field)

	negative := valid
	negative.AmountBTC = d("-0.5")
	assert.Error(t, negative.Validate())

	unknownType := valid
	unknownType.Type = "transfer"
	assert.Error(t, unknownType.Validate())
}

func TestTransactionCheckConsistency(t *testing.T) {
	tx := Transaction{
		ID:           "t1",
		Type:         TransactionBuy,
		AmountBTC:    d("1"),
		PricePerUnit: d("100"),
		TotalValue:   d("100"),
		Currency:     "USD",
	}
	assert.NoError(t, tx.CheckConsistency())

	// Una diferencia relativa minúscula queda dentro de la tolerancia
	tx.TotalValue = d("100.00001")
	assert.NoError(t, tx.CheckConsistency())

	tx.TotalValue = d("50")
	err := tx.CheckConsistency()
	var inconsistent *InconsistentEntryError
	require.True(t, errors.As(err, &inconsistent))
	assert.Equal(t, "t1", inconsistent.TransactionID)
}

func TestDcaSettingValidate(t *testing.T) {
	valid := DcaSetting{Amount: d("100"), Currency: "USD", Frequency: FrequencyWeekly}
	assert.NoError(t, valid.Validate())

	badFrequency := valid
	badFrequency.Frequency = "hourly"
	assert.Error(t, badFrequency.Validate())

	min := d("50000")
	max := d("30000")
	invertedRange := valid
	invertedRange.PriceRangeMin = &min
	invertedRange.PriceRangeMax = &max
	assert.Error(t, invertedRange.Validate())
}
