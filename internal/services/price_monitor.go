package services

import (
	"log"
	"sync"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// Interfaces que definen las operaciones que el monitor necesita de sus
// colaboradores
type WalletListerInterface interface {
	List() ([]models.Wallet, error)
}

type BalanceCalculatorInterface interface {
	ComputeBalance(walletID string, cutoff time.Time) (decimal.Decimal, []*models.InconsistentEntryError, error)
}

type SnapshotSaverInterface interface {
	SaveSnapshot(snapshot models.PriceSnapshot) error
}

// CachedValuation es la valuación en vivo de una billetera, etiquetada con
// la secuencia del poll que la originó.
type CachedValuation struct {
	WalletID   string          `json:"wallet_id"`
	BalanceBTC decimal.Decimal `json:"balance_btc"`
	ValueUSD   decimal.Decimal `json:"value_usd"`
	Sequence   uint64          `json:"sequence"`
	Stale      bool            `json:"stale"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PriceMonitor es un servicio que consulta el feed de precios
// periódicamente y mantiene la valuación en vivo de cada billetera.
// Cada poll lleva un número de secuencia monótono: un resultado calculado
// a partir del poll N se descarta si el poll N+1 ya llegó (gana la última
// secuencia). Si el feed no responde, se sigue con el último snapshot
// conocido marcado como stale en lugar de bloquear.
type PriceMonitor struct {
	interval    time.Duration
	feed        PriceFeed
	wallets     WalletListerInterface
	balances    BalanceCalculatorInterface
	saver       SnapshotSaverInterface
	isRunning   bool
	stopChan    chan struct{}
	mutex       sync.Mutex
	snapshot    models.PriceSnapshot
	hasSnapshot bool
	sequence    uint64
	cached      map[string]CachedValuation
}

// NewPriceMonitor crea un nuevo monitor de precios
func NewPriceMonitor(interval time.Duration, feed PriceFeed, wallets WalletListerInterface, balances BalanceCalculatorInterface, saver SnapshotSaverInterface) *PriceMonitor {
	return &PriceMonitor{
		interval: interval,
		feed:     feed,
		wallets:  wallets,
		balances: balances,
		saver:    saver,
		stopChan: make(chan struct{}),
		cached:   make(map[string]CachedValuation),
	}
}

// Start inicia el ciclo de actualización de precios
func (m *PriceMonitor) Start() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.isRunning {
		return
	}

	m.isRunning = true
	m.stopChan = make(chan struct{})

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		// Actualizar inmediatamente al iniciar
		m.Poll()

		for {
			select {
			case <-ticker.C:
				m.Poll()
			case <-m.stopChan:
				return
			}
		}
	}()

	log.Printf("Monitor de precios iniciado con intervalo de %v", m.interval)
}

// Stop detiene el ciclo de actualización de precios
func (m *PriceMonitor) Stop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.isRunning {
		return
	}

	m.isRunning = false
	close(m.stopChan)
	log.Printf("Monitor de precios detenido")
}

// Poll consulta el feed una vez y refresca las valuaciones de todas las
// billeteras con el snapshot resultante.
func (m *PriceMonitor) Poll() {
	fetched, err := m.feed.FetchPrices()

	m.mutex.Lock()
	if err != nil {
		// Feed caído: se sigue con el último snapshot conocido, marcado
		// como stale. La secuencia no avanza.
		log.Printf("Error al obtener precios del feed: %v", err)
		if !m.hasSnapshot {
			m.mutex.Unlock()
			return
		}
		m.snapshot.Stale = true
	} else {
		m.sequence++
		fetched.Sequence = m.sequence
		fetched.Stale = false
		m.snapshot = fetched
		m.hasSnapshot = true
	}
	snapshot := m.snapshot
	m.mutex.Unlock()

	if err == nil && m.saver != nil {
		if saveErr := m.saver.SaveSnapshot(snapshot); saveErr != nil {
			log.Printf("Error al guardar el punto de precio: %v", saveErr)
		}
	}

	m.refreshAllWallets(snapshot)
}

// refreshAllWallets recalcula la valuación en vivo de cada billetera.
// Las billeteras no comparten estado mutable, así que cada una se procesa
// en su propia goroutine.
func (m *PriceMonitor) refreshAllWallets(snapshot models.PriceSnapshot) {
	wallets, err := m.wallets.List()
	if err != nil {
		log.Printf("Error al obtener billeteras: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, wallet := range wallets {
		wg.Add(1)
		go func(walletID string) {
			defer wg.Done()
			m.refreshWallet(walletID, snapshot)
		}(wallet.ID)
	}
	wg.Wait()

	log.Printf("Valuación actualizada para %d billeteras (secuencia %d)", len(wallets), snapshot.Sequence)
}

// refreshWallet calcula y guarda en caché la valuación de una billetera.
// El resultado se descarta si otro poll avanzó la secuencia mientras el
// cálculo estaba en vuelo.
func (m *PriceMonitor) refreshWallet(walletID string, snapshot models.PriceSnapshot) {
	balance, _, err := m.balances.ComputeBalance(walletID, time.Now().UTC())
	if err != nil {
		log.Printf("Error al calcular el balance de la billetera %s: %v", walletID, err)
		return
	}

	valuation := CachedValuation{
		WalletID:   walletID,
		BalanceBTC: balance,
		ValueUSD:   balance.Mul(snapshot.BtcUsdPrice),
		Sequence:   snapshot.Sequence,
		Stale:      snapshot.Stale,
		UpdatedAt:  time.Now().UTC(),
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	// Gana la última secuencia: un resultado superado no pisa al más nuevo
	if valuation.Sequence < m.sequence {
		return
	}
	m.cached[walletID] = valuation
}

// Snapshot devuelve el snapshot de precios vigente
func (m *PriceMonitor) Snapshot() (models.PriceSnapshot, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.snapshot, m.hasSnapshot
}

// GetCachedValuation devuelve la valuación en caché de una billetera
func (m *PriceMonitor) GetCachedValuation(walletID string) (CachedValuation, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	valuation, exists := m.cached[walletID]
	return valuation, exists
}

// Sequence devuelve la secuencia del último poll exitoso
func (m *PriceMonitor) Sequence() uint64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.sequence
}
