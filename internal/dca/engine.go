// Package dca evalúa las reglas de compra recurrente de cada billetera
// contra su calendario y su compuerta de precio, emitiendo transacciones
// candidatas. El motor nunca persiste nada: la persistencia es
// responsabilidad del caller.
package dca

import (
	"sync"
	"time"

	"github.com/dcawallet/dca-wallet/internal/currency"
	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/google/uuid"
)

const biweeklyPeriod = 14 * 24 * time.Hour

// ruleKey identifica una regla por (billetera, índice de configuración),
// sin depender de identidad de objetos.
type ruleKey struct {
	WalletID     string
	SettingIndex int
}

// fireRecord es el pequeño estado mutable por regla. anchor es la fecha
// del primer disparo y fija los límites de los períodos bi-semanales.
type fireRecord struct {
	lastFiredAt time.Time
	anchor      time.Time
}

// Engine mantiene el registro de disparos por regla. Cada registro es
// propiedad exclusiva de su par (billetera, regla); el mutex solo protege
// el mapa frente a evaluaciones concurrentes de distintas billeteras.
type Engine struct {
	mu      sync.Mutex
	records map[ruleKey]*fireRecord
}

func NewEngine() *Engine {
	return &Engine{records: make(map[ruleKey]*fireRecord)}
}

// inNewPeriod decide si now cae en un período nuevo respecto del último
// disparo. Una regla que nunca disparó siempre está en un período nuevo.
func inNewPeriod(rec *fireRecord, freq models.Frequency, now time.Time) bool {
	if rec == nil {
		return true
	}
	last := rec.lastFiredAt.UTC()
	current := now.UTC()
	switch freq {
	case models.FrequencyDaily:
		ly, lm, ld := last.Date()
		cy, cm, cd := current.Date()
		return ly != cy || lm != cm || ld != cd
	case models.FrequencyWeekly:
		ly, lw := last.ISOWeek()
		cy, cw := current.ISOWeek()
		return ly != cy || lw != cw
	case models.FrequencyBiweekly:
		// Los límites se cuentan desde el primer disparo de la regla.
		return current.Sub(rec.anchor)/biweeklyPeriod > last.Sub(rec.anchor)/biweeklyPeriod
	case models.FrequencyMonthly:
		return last.Year() != current.Year() || last.Month() != current.Month()
	}
	return false
}

// passesGate evalúa la compuerta de precio de la regla. Los límites se
// expresan en la moneda de la regla, así que el precio USD se convierte
// antes de comparar. Una regla sin límites siempre pasa.
func passesGate(setting *models.DcaSetting, snapshot models.PriceSnapshot, table currency.RateTable) (bool, error) {
	if setting.PriceRangeMin == nil && setting.PriceRangeMax == nil {
		return true, nil
	}
	price, err := currency.Convert(snapshot.BtcUsdPrice, currency.Pivot, setting.Currency, table)
	if err != nil {
		return false, err
	}
	if setting.PriceRangeMin != nil && price.LessThan(*setting.PriceRangeMin) {
		return false, nil
	}
	if setting.PriceRangeMax != nil && price.GreaterThan(*setting.PriceRangeMax) {
		return false, nil
	}
	return true, nil
}

// Evaluate evalúa una regla y devuelve la transacción dca_buy candidata,
// o nil si la regla no dispara. lastFiredAt solo se actualiza cuando la
// regla efectivamente dispara: una regla que entró a su ventana pero falló
// la compuerta puede reintentar más tarde dentro del mismo período.
// Esto garantiza a lo sumo un disparo por regla por período.
func (e *Engine) Evaluate(wallet *models.Wallet, settingIndex int, snapshot models.PriceSnapshot, now time.Time, table currency.RateTable) (*models.Transaction, error) {
	// Con DCA deshabilitado la regla queda dormida; volver a habilitarla
	// no dispara retroactivamente los períodos perdidos.
	if !wallet.DcaEnabled {
		return nil, nil
	}
	if settingIndex < 0 || settingIndex >= len(wallet.DcaSettings) {
		return nil, &models.ValidationError{Field: "setting_index", Reason: "índice de regla fuera de rango"}
	}
	// Un snapshot sin precio no puede sintetizar una compra: la cantidad
	// de BTC sale de dividir por este precio.
	if !snapshot.BtcUsdPrice.IsPositive() {
		return nil, &models.ValidationError{Field: "btc_usd_price", Reason: "el precio del snapshot debe ser mayor que cero"}
	}
	setting := &wallet.DcaSettings[settingIndex]

	e.mu.Lock()
	defer e.mu.Unlock()

	key := ruleKey{WalletID: wallet.ID, SettingIndex: settingIndex}
	rec := e.records[key]

	if !inNewPeriod(rec, setting.Frequency, now) {
		return nil, nil
	}

	pass, err := passesGate(setting, snapshot, table)
	if err != nil {
		return nil, err
	}
	if !pass {
		return nil, nil
	}

	amountUSD, err := currency.Convert(setting.Amount, setting.Currency, currency.Pivot, table)
	if err != nil {
		return nil, err
	}
	// El precio por unidad se expresa en la moneda de la regla para que
	// amount * price coincida con el total en esa misma moneda.
	pricePerUnit, err := currency.Convert(snapshot.BtcUsdPrice, currency.Pivot, setting.Currency, table)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:              uuid.NewString(),
		WalletID:        wallet.ID,
		Type:            models.TransactionDcaBuy,
		AmountBTC:       amountUSD.Div(snapshot.BtcUsdPrice),
		PricePerUnit:    pricePerUnit,
		TotalValue:      setting.Amount,
		Currency:        setting.Currency,
		TransactionDate: now,
		CreatedAt:       now,
	}

	if rec == nil {
		rec = &fireRecord{anchor: now.UTC()}
		e.records[key] = rec
	}
	rec.lastFiredAt = now.UTC()

	return tx, nil
}

// EvaluateWallet evalúa todas las reglas de una billetera de forma
// independiente: una regla que falla no impide que las demás disparen.
func (e *Engine) EvaluateWallet(wallet *models.Wallet, snapshot models.PriceSnapshot, now time.Time, table currency.RateTable) ([]models.Transaction, []error) {
	var candidates []models.Transaction
	var failures []error
	for i := range wallet.DcaSettings {
		tx, err := e.Evaluate(wallet, i, snapshot, now, table)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if tx != nil {
			candidates = append(candidates, *tx)
		}
	}
	return candidates, failures
}
