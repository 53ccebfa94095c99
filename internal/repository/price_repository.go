package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

type PriceRepository struct {
	db *sql.DB
}

func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// SaveSnapshot guarda un punto del historial a partir del snapshot vigente.
// Se usa REPLACE porque el monitor puede guardar más de un snapshot con la
// misma marca de tiempo redondeada.
func (r *PriceRepository) SaveSnapshot(snapshot models.PriceSnapshot) error {
	query := `
		INSERT OR REPLACE INTO price_points (date, price_usd, price_brl)
		VALUES (?, ?, ?)`

	_, err := r.db.Exec(query,
		snapshot.LastUpdated,
		snapshot.BtcUsdPrice.String(),
		snapshot.BtcBrlPrice.String(),
	)
	return err
}

// History devuelve los puntos de precio del rango pedido, ascendentes por
// fecha, como los consume el valuador.
func (r *PriceRepository) History(from, to time.Time) ([]models.PricePoint, error) {
	query := `
		SELECT date, price_usd
		FROM price_points
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC`

	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error en la consulta SQL: %v", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var point models.PricePoint
		var price string
		var date time.Time
		if err := rows.Scan(&date, &price); err != nil {
			return nil, fmt.Errorf("error escaneando punto de precio: %v", err)
		}
		point.Date = date
		if point.PriceUSD, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("precio inválido en el historial: %v", err)
		}
		points = append(points, point)
	}
	return points, rows.Err()
}
