package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/queue"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

const (
	today    = "2026-03-10"
	tomorrow = "2026-03-11"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger("error")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishReservationConfirmed(_ context.Context, event queue.ReservationConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []queue.ReservationConfirmedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.ReservationConfirmedEvent(nil), p.events...)
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []hub.Message
}

func (b *recordingBroadcaster) Broadcast(msg hub.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *recordingBroadcaster) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := make([]string, 0, len(b.messages))
	for _, m := range b.messages {
		events = append(events, m.Event)
	}
	return events
}

type testEnv struct {
	db          *gorm.DB
	service     *ReservationService
	settings    *SettingsService
	publisher   *recordingPublisher
	broadcaster *recordingBroadcaster
}

func newTestEnv(t *testing.T, autoConfirm bool) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	store := NewGormCapacityStore(db)
	publisher := &recordingPublisher{}
	broadcaster := &recordingBroadcaster{}

	svc := NewReservationService(ReservationDeps{
		Ledger:      NewGormLedger(db),
		Capacity:    store,
		Transactor:  database.NewTransactionManager(db),
		Locker:      NewKeyedMutex(),
		Publisher:   publisher,
		Broadcaster: broadcaster,
		Location:    time.UTC,
		AutoConfirm: autoConfirm,
		Now:         func() time.Time { return fixedNow },
	})
	return &testEnv{
		db:          db,
		service:     svc,
		settings:    NewSettingsService(store, broadcaster),
		publisher:   publisher,
		broadcaster: broadcaster,
	}
}

// seed inserts a reservation directly, bypassing admission.
func (e *testEnv) seed(t *testing.T, date string, period models.MealPeriod, guests int, status models.ReservationStatus) models.Reservation {
	t.Helper()
	r := models.Reservation{
		Name:       "Seed",
		Email:      "seed@example.com",
		Phone:      "11999999999",
		Date:       date,
		Time:       "12:30",
		Guests:     guests,
		MealPeriod: period,
		Status:     status,
	}
	require.NoError(t, NewGormLedger(e.db).Insert(context.Background(), &r))
	return r
}

func guestInput(date, period string, guests int) ReservationInput {
	return ReservationInput{
		Name:       "Maria Silva",
		Email:      "maria@example.com",
		Phone:      "11988887777",
		Date:       date,
		Time:       "12:30",
		Guests:     guests,
		MealPeriod: period,
	}
}

func ptr[T any](v T) *T { return &v }
