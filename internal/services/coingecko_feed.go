package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// PriceFeed abstrae la fuente del snapshot de precios. El motor nunca
// consulta el feed directamente: consume snapshots ya obtenidos.
type PriceFeed interface {
	FetchPrices() (models.PriceSnapshot, error)
}

// CoinGeckoFeed obtiene el precio actual de BTC en USD y BRL desde la API
// de CoinGecko.
type CoinGeckoFeed struct {
	apiKey string
	client *http.Client
}

func NewCoinGeckoFeed() *CoinGeckoFeed {
	return &CoinGeckoFeed{
		apiKey: os.Getenv("COINGECKO_API_KEY"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *CoinGeckoFeed) FetchPrices() (models.PriceSnapshot, error) {
	url := "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd,brl"

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return models.PriceSnapshot{}, err
	}
	req.Header.Set("accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return models.PriceSnapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PriceSnapshot{}, fmt.Errorf("respuesta inesperada de CoinGecko: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PriceSnapshot{}, err
	}

	var parsed struct {
		Bitcoin struct {
			USD float64 `json:"usd"`
			BRL float64 `json:"brl"`
		} `json:"bitcoin"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.PriceSnapshot{}, fmt.Errorf("error al decodificar la respuesta de CoinGecko: %v", err)
	}
	if parsed.Bitcoin.USD == 0 {
		return models.PriceSnapshot{}, fmt.Errorf("no se encontraron datos de precio para bitcoin")
	}

	btcUsd := decimal.NewFromFloat(parsed.Bitcoin.USD)
	btcBrl := decimal.NewFromFloat(parsed.Bitcoin.BRL)

	// La tasa pivote USD/BRL se deriva de los dos precios, redondeada a 4
	// decimales
	usdBrl := btcBrl.Div(btcUsd).Round(4)

	return models.PriceSnapshot{
		BtcUsdPrice: btcUsd,
		BtcBrlPrice: btcBrl,
		UsdBrlRate:  usdBrl,
		LastUpdated: time.Now().UTC(),
	}, nil
}
