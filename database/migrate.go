package database

import (
	"gorm.io/gorm"

	"github.com/yeremiapane/pizzeria-app/utils"
)

// Migrate creates or updates the tables backing the relational store.
func Migrate(db *gorm.DB) error {
	tables := []interface{}{
		&productRow{},
		&userRow{},
		&orderRow{},
		&orderItemRow{},
	}
	if err := db.AutoMigrate(tables...); err != nil {
		utils.ErrorLogger.Printf("Error running migrations: %v", err)
		return err
	}

	// Verifikasi tabel
	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			utils.ErrorLogger.Printf("Table for %T is missing after migration", table)
			continue
		}
		utils.InfoLogger.Printf("Table verified: %T", table)
	}
	return nil
}
