package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// SettingsService reads and updates the capacity ceilings.
type SettingsService struct {
	store       CapacityStore
	broadcaster Broadcaster
}

func NewSettingsService(store CapacityStore, broadcaster Broadcaster) *SettingsService {
	if broadcaster == nil {
		broadcaster = noBroadcast{}
	}
	return &SettingsService{store: store, broadcaster: broadcaster}
}

func (s *SettingsService) Get(ctx context.Context) (models.Capacity, error) {
	return s.store.GetSettings(ctx)
}

// Update stores new ceilings and tells connected dashboards to refresh.
// Lowering a ceiling below the guests already confirmed is allowed; later admissions
// for that slot are rejected until the load drops.
func (s *SettingsService) Update(ctx context.Context, capacity models.Capacity) (models.ReservationSettings, error) {
	row, err := s.store.UpdateSettings(ctx, capacity)
	if err != nil {
		return models.ReservationSettings{}, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"max_breakfast": row.MaxBreakfast,
		"max_lunch":     row.MaxLunch,
		"max_dinner":    row.MaxDinner,
	}).Info("reservation settings updated")

	s.broadcaster.Broadcast(hub.Message{Event: hub.EventSettingsUpdate, Data: row.Capacity()})
	return row, nil
}
