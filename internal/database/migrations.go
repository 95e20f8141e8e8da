package database

import (
	"log"

	"gorm.io/gorm"
)

// cleanupDuplicateRows removes rows that predate the unique indexes on price
// snapshots and sales, keeping the most recently inserted row per key.
func cleanupDuplicateRows(db *gorm.DB) error {
	if db.Migrator().HasTable("price_snapshots") {
		result := db.Exec(`
			DELETE FROM price_snapshots
			WHERE id NOT IN (
				SELECT MAX(id)
				FROM price_snapshots
				GROUP BY card_id, source, price_type
			)
		`)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Printf("Cleaned up %d duplicate price snapshot rows", result.RowsAffected)
		}
	}

	if db.Migrator().HasTable("sale_records") {
		result := db.Exec(`
			DELETE FROM sale_records
			WHERE id NOT IN (
				SELECT MIN(id)
				FROM sale_records
				GROUP BY card_id, source, sale_date, price
			)
		`)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Printf("Cleaned up %d duplicate sale rows", result.RowsAffected)
		}
	}

	return nil
}
