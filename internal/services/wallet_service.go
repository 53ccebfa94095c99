package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dcawallet/dca-wallet/internal/currency"
	"github.com/dcawallet/dca-wallet/internal/dca"
	"github.com/dcawallet/dca-wallet/internal/ledger"
	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/dcawallet/dca-wallet/internal/portfolio"
	"github.com/dcawallet/dca-wallet/internal/repository"
	"github.com/shopspring/decimal"
)

// Interfaces que definen las operaciones que el servicio necesita de los
// repositorios
type TransactionStoreInterface interface {
	Create(tx *models.Transaction) error
	ListByWallet(walletID string) ([]models.Transaction, error)
}

type WalletStoreInterface interface {
	Get(id string) (*models.Wallet, error)
	List() ([]models.Wallet, error)
}

type PriceHistoryInterface interface {
	History(from, to time.Time) ([]models.PricePoint, error)
}

// WalletService expone las operaciones del motor sobre los repositorios:
// balance, serie de valuación, evaluación de reglas DCA y conversión de
// monedas. Todas operan sobre snapshots inmutables.
type WalletService struct {
	transactions TransactionStoreInterface
	wallets      WalletStoreInterface
	prices       PriceHistoryInterface
	engine       *dca.Engine
	monitor      *PriceMonitor
}

func NewWalletService(transactions TransactionStoreInterface, wallets WalletStoreInterface, prices PriceHistoryInterface, engine *dca.Engine) *WalletService {
	return &WalletService{
		transactions: transactions,
		wallets:      wallets,
		prices:       prices,
		engine:       engine,
	}
}

// SetMonitor conecta el monitor de precios una vez creado. El monitor
// también depende del servicio para calcular balances, así que se inyecta
// después de construir ambos.
func (s *WalletService) SetMonitor(monitor *PriceMonitor) {
	s.monitor = monitor
}

// ComputeBalance reproduce el ledger de la billetera hasta el corte y
// devuelve el balance junto con las entradas inconsistentes reportadas.
func (s *WalletService) ComputeBalance(walletID string, cutoff time.Time) (decimal.Decimal, []*models.InconsistentEntryError, error) {
	if _, err := s.wallets.Get(walletID); err != nil {
		return decimal.Zero, nil, err
	}
	transactions, err := s.transactions.ListByWallet(walletID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("error al obtener las transacciones: %v", err)
	}
	balance, reports := ledger.BalanceAsOf(transactions, cutoff)
	return balance, reports, nil
}

// rangeBounds traduce un timespan ("7d", "30d", "90d", "365d", "ALL") a
// los límites del rango de valuación. "ALL" arranca en la primera
// transacción de la billetera; sin transacciones no hay punto de partida y
// se rechaza con ValidationError.
func rangeBounds(timespan string, transactions []models.Transaction, now time.Time) (time.Time, time.Time, error) {
	days := map[string]int{"7d": 7, "30d": 30, "90d": 90, "365d": 365}
	if timespan == "ALL" {
		if len(transactions) == 0 {
			return time.Time{}, time.Time{}, &models.ValidationError{Field: "range", Reason: "la billetera no tiene transacciones"}
		}
		return transactions[0].TransactionDate, now, nil
	}
	d, ok := days[timespan]
	if !ok {
		return time.Time{}, time.Time{}, &models.ValidationError{Field: "range", Reason: "rango desconocido: " + timespan}
	}
	return now.AddDate(0, 0, -d), now, nil
}

// ComputeValuationSeries valúa la billetera en cada moneda pedida. Las
// monedas sin tasa disponible fallan individualmente: se devuelven las
// series calculadas junto con el error específico de cada moneda fallida.
func (s *WalletService) ComputeValuationSeries(walletID, timespan string, currencies []string) (map[string][]portfolio.Point, map[string]error, error) {
	if _, err := s.wallets.Get(walletID); err != nil {
		return nil, nil, err
	}
	transactions, err := s.transactions.ListByWallet(walletID)
	if err != nil {
		return nil, nil, fmt.Errorf("error al obtener las transacciones: %v", err)
	}

	now := time.Now().UTC()
	from, to, err := rangeBounds(timespan, transactions, now)
	if err != nil {
		return nil, nil, err
	}

	points, err := s.prices.History(from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("error al obtener el historial de precios: %v", err)
	}

	// Sin snapshot la tabla queda vacía: USD se valúa igual y las demás
	// monedas fallan individualmente con RateUnavailableError.
	table, _, err := s.currentTable()
	if err != nil {
		table = currency.RateTable{}
	}

	series, failures := portfolio.SeriesByCurrency(transactions, points, currencies, table)
	return series, failures, nil
}

// ComputePerformanceSummary calcula el resumen de desempeño del rango:
// invertido, ganancia/pérdida, precio promedio de compra y extremos de la
// serie valuada, siempre en USD.
func (s *WalletService) ComputePerformanceSummary(walletID, timespan string) (portfolio.Summary, error) {
	if _, err := s.wallets.Get(walletID); err != nil {
		return portfolio.Summary{}, err
	}
	transactions, err := s.transactions.ListByWallet(walletID)
	if err != nil {
		return portfolio.Summary{}, fmt.Errorf("error al obtener las transacciones: %v", err)
	}

	now := time.Now().UTC()
	from, to, err := rangeBounds(timespan, transactions, now)
	if err != nil {
		return portfolio.Summary{}, err
	}

	points, err := s.prices.History(from, to)
	if err != nil {
		return portfolio.Summary{}, fmt.Errorf("error al obtener el historial de precios: %v", err)
	}

	table, _, err := s.currentTable()
	if err != nil {
		table = currency.RateTable{}
	}
	return portfolio.Summarize(transactions, points, table)
}

// EvaluateDcaRules evalúa todas las reglas DCA de la billetera contra el
// snapshot dado y devuelve las transacciones candidatas. La persistencia
// de las candidatas es responsabilidad del caller.
func (s *WalletService) EvaluateDcaRules(walletID string, snapshot models.PriceSnapshot, now time.Time) ([]models.Transaction, []error, error) {
	wallet, err := s.wallets.Get(walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, nil, &models.NoWalletsError{}
		}
		return nil, nil, err
	}

	table := currency.TableFromSnapshot(snapshot)
	candidates, failures := s.engine.EvaluateWallet(wallet, snapshot, now, table)
	return candidates, failures, nil
}

// RunDcaPass evalúa las reglas de todas las billeteras con DCA habilitado
// y persiste las candidatas emitidas. Es el punto de entrada del
// scheduler.
func (s *WalletService) RunDcaPass(now time.Time) (int, error) {
	wallets, err := s.wallets.List()
	if err != nil {
		return 0, fmt.Errorf("error al obtener billeteras: %v", err)
	}
	if len(wallets) == 0 {
		return 0, &models.NoWalletsError{}
	}

	snapshot, ok := s.monitor.Snapshot()
	if !ok {
		return 0, fmt.Errorf("no hay snapshot de precios disponible")
	}
	table := currency.TableFromSnapshot(snapshot)

	persisted := 0
	for i := range wallets {
		wallet := &wallets[i]
		if !wallet.DcaEnabled {
			continue
		}

		candidates, failures := s.engine.EvaluateWallet(wallet, snapshot, now, table)
		for _, failure := range failures {
			log.Printf("Error al evaluar una regla DCA de la billetera %s: %v", wallet.ID, failure)
		}
		for i := range candidates {
			if err := s.transactions.Create(&candidates[i]); err != nil {
				log.Printf("Error al persistir la compra DCA de la billetera %s: %v", wallet.ID, err)
				continue
			}
			persisted++
		}
	}
	return persisted, nil
}

// Convert convierte un monto usando la tabla de tasas del snapshot vigente
func (s *WalletService) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	// La identidad no necesita tabla de tasas
	if from == to {
		return amount, nil
	}
	table, _, err := s.currentTable()
	if err != nil {
		return decimal.Zero, err
	}
	return currency.Convert(amount, from, to, table)
}

func (s *WalletService) currentTable() (currency.RateTable, models.PriceSnapshot, error) {
	if s.monitor == nil {
		return nil, models.PriceSnapshot{}, fmt.Errorf("el monitor de precios no está configurado")
	}
	snapshot, ok := s.monitor.Snapshot()
	if !ok {
		return nil, models.PriceSnapshot{}, fmt.Errorf("no hay snapshot de precios disponible")
	}
	return currency.TableFromSnapshot(snapshot), snapshot, nil
}
