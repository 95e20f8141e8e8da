package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cardwatch/cardwatch/internal/models"
)

// Initialize opens (creating if needed) the catalog database at dbPath and
// migrates the schema. The returned handle is passed explicitly to the
// services that need it; there is no package-level singleton so tests can run
// against isolated in-memory databases.
func Initialize(dbPath string) (*gorm.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Clean up rows that would violate the unique indexes BEFORE AutoMigrate
	// adds them, otherwise index creation fails on old databases.
	if err := cleanupDuplicateRows(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.Card{}, &models.PriceSnapshot{}, &models.SaleRecord{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Printf("Database ready at %s", dbPath)
	return db, nil
}
