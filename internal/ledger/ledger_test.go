package ledger

import (
	"testing"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func makeTx(id string, txType models.TransactionType, amount, price, total string, date time.Time) models.Transaction {
	return models.Transaction{
		ID:              id,
		WalletID:        "w1",
		Type:            txType,
		AmountBTC:       d(amount),
		PricePerUnit:    d(price),
		TotalValue:      d(total),
		Currency:        "USD",
		TransactionDate: date,
	}
}

func TestBalanceAsOfBuyAndSell(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx("t1", models.TransactionBuy, "0.001", "60000", "60", base),
		makeTx("t2", models.TransactionSell, "0.0004", "70000", "28", base.Add(24*time.Hour)),
	}

	balance, reports := BalanceAsOf(txs, base.Add(48*time.Hour))
	assert.Empty(t, reports)
	assert.True(t, balance.Equal(d("0.0006")), "balance = %s", balance)
}

func TestBalanceAsOfCutoff(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx("t1", models.TransactionBuy, "1", "60000", "60000", base),
		makeTx("t2", models.TransactionBuy, "2", "60000", "120000", base.Add(time.Hour)),
		makeTx("t3", models.TransactionBuy, "4", "60000", "240000", base.Add(2*time.Hour)),
	}

	// El corte es inclusivo
	balance, _ := BalanceAsOf(txs, base.Add(time.Hour))
	assert.True(t, balance.Equal(d("3")), "balance = %s", balance)

	// Antes de la primera transacción el balance es cero
	balance, _ = BalanceAsOf(txs, base.Add(-time.Minute))
	assert.True(t, balance.IsZero())
}

func TestBalanceAsOfEmptyLedger(t *testing.T) {
	balance, reports := BalanceAsOf(nil, time.Now())
	assert.True(t, balance.IsZero())
	assert.Empty(t, reports)
}

func TestBalanceAsOfDcaBuyCounts(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx("t1", models.TransactionDcaBuy, "0.0025", "40000", "100", base),
	}

	balance, reports := BalanceAsOf(txs, base)
	assert.Empty(t, reports)
	assert.True(t, balance.Equal(d("0.0025")))
}

func TestBalanceAsOfInconsistentEntryExcludedAndReported(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx("good", models.TransactionBuy, "0.5", "100", "50", base),
		// amount * price = 100, pero el total dice 50: entrada inconsistente
		makeTx("bad", models.TransactionBuy, "1", "100", "50", base.Add(time.Minute)),
	}

	balance, reports := BalanceAsOf(txs, base.Add(time.Hour))
	assert.True(t, balance.Equal(d("0.5")), "la entrada inconsistente no debe sumar: %s", balance)
	require.Len(t, reports, 1)
	assert.Equal(t, "bad", reports[0].TransactionID)
}

func TestBalanceAsOfSameTimestampOrderInvariant(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := makeTx("a", models.TransactionBuy, "0.3", "50000", "15000", base)
	b := makeTx("b", models.TransactionSell, "0.1", "50000", "5000", base)
	c := makeTx("c", models.TransactionBuy, "0.05", "50000", "2500", base)

	orderings := [][]models.Transaction{
		{a, b, c},
		{c, b, a},
		{b, a, c},
	}
	for _, txs := range orderings {
		balance, _ := BalanceAsOf(txs, base)
		assert.True(t, balance.Equal(d("0.25")), "balance = %s", balance)
	}
}

func TestCursorIncrementalAdvance(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		makeTx("t1", models.TransactionBuy, "1", "100", "100", base),
		makeTx("t2", models.TransactionBuy, "1", "100", "100", base.AddDate(0, 0, 2)),
	}

	cursor := NewCursor(txs)
	assert.True(t, cursor.Advance(base).Equal(d("1")))
	assert.True(t, cursor.Advance(base.AddDate(0, 0, 1)).Equal(d("1")))
	assert.True(t, cursor.Advance(base.AddDate(0, 0, 3)).Equal(d("2")))
	assert.True(t, cursor.Balance().Equal(d("2")))
}
