package database

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDB abre la base de datos y crea el esquema si no existe. La ruta del
// archivo puede sobreescribirse con DATABASE_PATH.
func InitDB() error {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		// Crear el directorio database si no existe
		if err := os.MkdirAll("database", 0755); err != nil {
			return err
		}
		path = filepath.Join("database", "wallets.db")
	}

	var err error
	DB, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	// Crear tabla de billeteras. Las reglas DCA se guardan embebidas como
	// JSON porque siempre se leen y escriben junto con su billetera.
	createWalletsTableSQL := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		dca_enabled INTEGER NOT NULL DEFAULT 0,
		dca_settings TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err = DB.Exec(createWalletsTableSQL); err != nil {
		return err
	}

	// Crear tabla de transacciones. El ledger es append-only: no hay
	// update ni delete sobre esta tabla.
	createTransactionsTableSQL := `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		wallet_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount_btc TEXT NOT NULL,
		price_per_unit TEXT NOT NULL,
		total_value TEXT NOT NULL,
		currency TEXT NOT NULL,
		notes TEXT,
		transaction_date DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(wallet_id) REFERENCES wallets(id)
	);`

	if _, err = DB.Exec(createTransactionsTableSQL); err != nil {
		return err
	}

	// Índice para el replay ordenado por fecha de cada billetera
	createTransactionsIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_transactions_wallet_date
	ON transactions(wallet_id, transaction_date);`

	if _, err = DB.Exec(createTransactionsIndexSQL); err != nil {
		return err
	}

	// Crear tabla del historial de precios
	createPricePointsTableSQL := `
	CREATE TABLE IF NOT EXISTS price_points (
		date DATETIME PRIMARY KEY,
		price_usd TEXT NOT NULL
	);`

	if _, err = DB.Exec(createPricePointsTableSQL); err != nil {
		return err
	}

	// Ejecutar migraciones para actualizar el esquema
	return RunMigrations()
}
