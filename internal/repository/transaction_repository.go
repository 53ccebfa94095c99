package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dcawallet/dca-wallet/internal/models"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserta una transacción en el ledger. La transacción se valida en
// la ingesta: una entrada con cantidad no positiva o tipo desconocido se
// rechaza con ValidationError y nunca llega al ledger.
func (r *TransactionRepository) Create(tx *models.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (id, wallet_id, type, amount_btc, price_per_unit, total_value, currency, notes, transaction_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		tx.ID,
		tx.WalletID,
		string(tx.Type),
		tx.AmountBTC.String(),
		tx.PricePerUnit.String(),
		tx.TotalValue.String(),
		tx.Currency,
		tx.Notes,
		tx.TransactionDate,
		tx.CreatedAt,
	)
	return err
}

// ListByWallet devuelve las transacciones de una billetera ordenadas por
// fecha ascendente, como las consume el ledger.
func (r *TransactionRepository) ListByWallet(walletID string) ([]models.Transaction, error) {
	query := `
		SELECT id, wallet_id, type, amount_btc, price_per_unit, total_value, currency, notes, transaction_date, created_at
		FROM transactions
		WHERE wallet_id = ?
		ORDER BY transaction_date ASC`

	rows, err := r.db.Query(query, walletID)
	if err != nil {
		return nil, fmt.Errorf("error en la consulta SQL: %v", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (*models.Transaction, error) {
	var tx models.Transaction
	var txType string
	var amount, price, total string
	var notes sql.NullString
	var date, createdAt time.Time

	err := rows.Scan(&tx.ID, &tx.WalletID, &txType, &amount, &price, &total, &tx.Currency, &notes, &date, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("error escaneando transacción: %v", err)
	}

	tx.Type = models.TransactionType(txType)
	tx.Notes = notes.String
	tx.TransactionDate = date
	tx.CreatedAt = createdAt

	// Los montos se guardan como texto decimal para no perder precisión
	if tx.AmountBTC, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("monto inválido en la transacción %s: %v", tx.ID, err)
	}
	if tx.PricePerUnit, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("precio inválido en la transacción %s: %v", tx.ID, err)
	}
	if tx.TotalValue, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("total inválido en la transacción %s: %v", tx.ID, err)
	}
	return &tx, nil
}
