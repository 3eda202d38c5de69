package services

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CapacityStore holds the per-period ceilings.
type CapacityStore interface {
	GetSettings(ctx context.Context) (models.Capacity, error)
	UpdateSettings(ctx context.Context, capacity models.Capacity) (models.ReservationSettings, error)
}

type GormCapacityStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormCapacityStore(db *gorm.DB) *GormCapacityStore {
	return &GormCapacityStore{db: db, now: time.Now}
}

// GetSettings returns the stored ceilings, or the defaults while no row exists.
func (s *GormCapacityStore) GetSettings(ctx context.Context) (models.Capacity, error) {
	var row models.ReservationSettings
	err := database.Conn(ctx, s.db).First(&row, models.SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultCapacity, nil
	}
	if err != nil {
		return models.Capacity{}, persistenceError("capacity.get", msgSettingsLoad, err)
	}
	return row.Capacity(), nil
}

// UpdateSettings writes the singleton row, inserting it on first use.
func (s *GormCapacityStore) UpdateSettings(ctx context.Context, capacity models.Capacity) (models.ReservationSettings, error) {
	row := models.ReservationSettings{
		ID:           models.SettingsRowID,
		MaxBreakfast: capacity.MaxBreakfast,
		MaxLunch:     capacity.MaxLunch,
		MaxDinner:    capacity.MaxDinner,
		UpdatedAt:    s.now().UTC(),
	}
	err := database.Conn(ctx, s.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"max_breakfast", "max_lunch", "max_dinner", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return models.ReservationSettings{}, persistenceError("capacity.update", msgSettingsUpdate, err)
	}
	return row, nil
}
