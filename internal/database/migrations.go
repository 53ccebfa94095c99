package database

import (
	"log"
)

// RunMigrations ejecuta las migraciones necesarias para actualizar el esquema de la base de datos
func RunMigrations() error {
	log.Println("Ejecutando migraciones de la base de datos...")

	// Migración para añadir el precio en BRL al historial de precios
	addBrlPriceColumnSQL := `
	ALTER TABLE price_points ADD COLUMN price_brl TEXT;
	`

	_, err := DB.Exec(addBrlPriceColumnSQL)
	if err != nil {
		// No retornamos error porque SQLite puede dar error si la columna
		// ya existe y queremos que la migración continúe
		log.Printf("Error al añadir la columna price_brl: %v", err)
	} else {
		log.Println("Columna price_brl añadida correctamente")
	}

	return nil
}
