package database

import (
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

// Migrate creates or updates the reservation tables and their slot index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.ReservationSettings{},
		&models.Reservation{},
	); err != nil {
		utils.ErrorLogger.Printf("Failed to AutoMigrate: %v", err)
		return err
	}

	if !db.Migrator().HasIndex(&models.Reservation{}, "idx_reservation_slot") {
		if err := db.Migrator().CreateIndex(&models.Reservation{}, "idx_reservation_slot"); err != nil {
			utils.ErrorLogger.Printf("Error creating idx_reservation_slot: %v", err)
			return err
		}
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
