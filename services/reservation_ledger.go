package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/models"
	"gorm.io/gorm"
)

// Ledger is the store of reservation records and the source of truth for confirmed guests.
type Ledger interface {
	CountConfirmedGuests(ctx context.Context, date string, period models.MealPeriod, excludeID *uint) (int, error)
	Insert(ctx context.Context, r *models.Reservation) error
	Get(ctx context.Context, id uint) (models.Reservation, error)
	UpdateFields(ctx context.Context, id uint, patch models.ReservationPatch) (models.Reservation, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	SumConfirmedByPeriod(ctx context.Context, date string) (map[models.MealPeriod]int, error)
}

type GormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db, now: time.Now}
}

func (l *GormLedger) CountConfirmedGuests(ctx context.Context, date string, period models.MealPeriod, excludeID *uint) (int, error) {
	q := database.Conn(ctx, l.db).Model(&models.Reservation{}).
		Select("COALESCE(SUM(guests), 0)").
		Where("date = ? AND meal_period = ? AND status = ?", date, period, models.StatusConfirmed)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var total sql.NullInt64
	if err := q.Row().Scan(&total); err != nil {
		return 0, persistenceError("ledger.count", msgLoadFailed, err)
	}
	return int(total.Int64), nil
}

func (l *GormLedger) Insert(ctx context.Context, r *models.Reservation) error {
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	now := l.now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if err := database.Conn(ctx, l.db).Create(r).Error; err != nil {
		return persistenceError("ledger.insert", msgCreateFailed, err)
	}
	return nil
}

func (l *GormLedger) Get(ctx context.Context, id uint) (models.Reservation, error) {
	var r models.Reservation
	err := database.Conn(ctx, l.db).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Reservation{}, ErrReservationNotFound
	}
	if err != nil {
		return models.Reservation{}, persistenceError("ledger.get", msgLoadFailed, err)
	}
	return r, nil
}

// UpdateFields merges patch into the stored record and saves it.
func (l *GormLedger) UpdateFields(ctx context.Context, id uint, patch models.ReservationPatch) (models.Reservation, error) {
	r, err := l.Get(ctx, id)
	if err != nil {
		return models.Reservation{}, err
	}
	patch.Apply(&r)
	r.UpdatedAt = l.now().UTC()
	if err := database.Conn(ctx, l.db).Save(&r).Error; err != nil {
		return models.Reservation{}, persistenceError("ledger.update", msgUpdateFailed, err)
	}
	return r, nil
}

// Delete removes the record. Deleting an unknown id is not an error.
func (l *GormLedger) Delete(ctx context.Context, id uint) error {
	if err := database.Conn(ctx, l.db).Delete(&models.Reservation{}, id).Error; err != nil {
		return persistenceError("ledger.delete", msgDeleteFailed, err)
	}
	return nil
}

func (l *GormLedger) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	q := database.Conn(ctx, l.db).Model(&models.Reservation{})
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MealPeriod != "" {
		q = q.Where("meal_period = ?", filter.MealPeriod)
	}

	reservations := []models.Reservation{}
	if err := q.Order("date DESC").Order("time ASC").Order("id ASC").Find(&reservations).Error; err != nil {
		return nil, persistenceError("ledger.list", msgLoadFailed, err)
	}
	return reservations, nil
}

type periodTotal struct {
	MealPeriod models.MealPeriod
	Total      int
}

// SumConfirmedByPeriod returns confirmed guests per period for date. Every period is present.
func (l *GormLedger) SumConfirmedByPeriod(ctx context.Context, date string) (map[models.MealPeriod]int, error) {
	var rows []periodTotal
	err := database.Conn(ctx, l.db).Model(&models.Reservation{}).
		Select("meal_period, COALESCE(SUM(guests), 0) AS total").
		Where("date = ? AND status = ?", date, models.StatusConfirmed).
		Group("meal_period").
		Scan(&rows).Error
	if err != nil {
		return nil, persistenceError("ledger.sum", msgLoadFailed, err)
	}

	sums := make(map[models.MealPeriod]int, len(models.MealPeriods))
	for _, p := range models.MealPeriods {
		sums[p] = 0
	}
	for _, row := range rows {
		sums[row.MealPeriod] = row.Total
	}
	return sums, nil
}
