package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dcawallet/dca-wallet/internal/models"
)

var ErrWalletNotFound = errors.New("billetera no encontrada")

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(wallet *models.Wallet) error {
	settings, err := json.Marshal(wallet.DcaSettings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO wallets (id, label, currency, dca_enabled, dca_settings, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		wallet.ID,
		wallet.Label,
		wallet.Currency,
		wallet.DcaEnabled,
		string(settings),
		wallet.CreatedAt,
	)
	return err
}

func (r *WalletRepository) Get(id string) (*models.Wallet, error) {
	query := `
		SELECT id, label, currency, dca_enabled, dca_settings, created_at
		FROM wallets
		WHERE id = ?`

	wallet, err := scanWallet(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	return wallet, err
}

func (r *WalletRepository) List() ([]models.Wallet, error) {
	query := `
		SELECT id, label, currency, dca_enabled, dca_settings, created_at
		FROM wallets
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error en la consulta SQL: %v", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *wallet)
	}
	return wallets, rows.Err()
}

// UpdateDca habilita o deshabilita el modo DCA y reemplaza las reglas de
// la billetera. Al deshabilitar se limpian las reglas.
func (r *WalletRepository) UpdateDca(id string, enabled bool, settings []models.DcaSetting) error {
	if !enabled {
		settings = []models.DcaSetting{}
	}
	encoded, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE wallets SET dca_enabled = ?, dca_settings = ? WHERE id = ?`,
		enabled, string(encoded), id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var wallet models.Wallet
	var settings string

	err := row.Scan(&wallet.ID, &wallet.Label, &wallet.Currency, &wallet.DcaEnabled, &settings, &wallet.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(settings), &wallet.DcaSettings); err != nil {
		return nil, fmt.Errorf("reglas DCA inválidas en la billetera %s: %v", wallet.ID, err)
	}
	return &wallet, nil
}
