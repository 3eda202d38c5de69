package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/queue"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const (
	DefaultMaxGuests = 20
	defaultLockWait  = 10 * time.Second
	timeLayout       = "15:04"
	maxUpdateRetries = 3
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Broadcaster pushes live updates to admin dashboards.
type Broadcaster interface {
	Broadcast(msg hub.Message)
}

type noTransaction struct{}

func (noTransaction) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noBroadcast struct{}

func (noBroadcast) Broadcast(hub.Message) {}

// ReservationDeps wires a ReservationService. Only Ledger and Capacity are required.
type ReservationDeps struct {
	Ledger      Ledger
	Capacity    CapacityStore
	Transactor  Transactor
	Locker      AdmissionLocker
	Publisher   queue.Publisher
	Broadcaster Broadcaster
	Location    *time.Location
	AutoConfirm bool
	MaxGuests   int
	LockWait    time.Duration
	Now         func() time.Time
}

// ReservationInput is a reservation as submitted by a guest or an admin.
type ReservationInput struct {
	Name       string
	Email      string
	Phone      string
	Date       string
	Time       string
	Guests     int
	MealPeriod string
	Notes      *string
	// admin creation only; empty means pending
	Status string
}

// ReservationUpdate is a partial admin edit. Nil fields are left untouched.
type ReservationUpdate struct {
	Name       *string
	Email      *string
	Phone      *string
	Date       *string
	Time       *string
	Guests     *int
	MealPeriod *string
	Status     *string
	Notes      *string
}

// PeriodOccupancy is the load of one meal period on one date.
type PeriodOccupancy struct {
	MealPeriod models.MealPeriod `json:"meal_period"`
	Capacity   int               `json:"capacity"`
	Confirmed  int               `json:"confirmed"`
	Remaining  int               `json:"remaining"`
}

type Occupancy struct {
	Date    string            `json:"date"`
	Periods []PeriodOccupancy `json:"periods"`
}

// TodaySummary backs the admin "today" view.
type TodaySummary struct {
	Occupancy    Occupancy            `json:"occupancy"`
	Reservations []models.Reservation `json:"reservations"`
}

// ReservationService applies reservation policy on top of the ledger and the admission engine.
type ReservationService struct {
	ledger      Ledger
	capacity    CapacityStore
	engine      *AdmissionEngine
	tx          Transactor
	locker      AdmissionLocker
	publisher   queue.Publisher
	broadcaster Broadcaster
	location    *time.Location
	autoConfirm bool
	maxGuests   int
	lockWait    time.Duration
	now         func() time.Time
}

func NewReservationService(deps ReservationDeps) *ReservationService {
	s := &ReservationService{
		ledger:      deps.Ledger,
		capacity:    deps.Capacity,
		engine:      NewAdmissionEngine(deps.Capacity, deps.Ledger),
		tx:          deps.Transactor,
		locker:      deps.Locker,
		publisher:   deps.Publisher,
		broadcaster: deps.Broadcaster,
		location:    deps.Location,
		autoConfirm: deps.AutoConfirm,
		maxGuests:   deps.MaxGuests,
		lockWait:    deps.LockWait,
		now:         deps.Now,
	}
	if s.tx == nil {
		s.tx = noTransaction{}
	}
	if s.locker == nil {
		s.locker = NewKeyedMutex()
	}
	if s.publisher == nil {
		s.publisher = queue.NoopPublisher{}
	}
	if s.broadcaster == nil {
		s.broadcaster = noBroadcast{}
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.maxGuests <= 0 {
		s.maxGuests = DefaultMaxGuests
	}
	if s.lockWait <= 0 {
		s.lockWait = defaultLockWait
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today returns the current date in the business timezone.
func (s *ReservationService) Today() string {
	return s.now().In(s.location).Format(models.DateLayout)
}

// CreateGuest books a reservation from the public form. The date must be after today and
// the party must fit next to the guests already confirmed for that slot.
func (s *ReservationService) CreateGuest(ctx context.Context, in ReservationInput) (models.Reservation, error) {
	r, err := s.buildReservation(in)
	if err != nil {
		return models.Reservation{}, err
	}
	if r.Date <= s.Today() {
		return models.Reservation{}, ErrLeadTime
	}

	r.Status = models.StatusPending
	if s.autoConfirm {
		r.Status = models.StatusConfirmed
	}

	err = s.guarded(ctx, r.Date, r.MealPeriod, func(ctx context.Context) error {
		if err := s.admit(ctx, r.Date, r.MealPeriod, r.Guests, nil); err != nil {
			return err
		}
		return s.ledger.Insert(ctx, &r)
	})
	if err != nil {
		return models.Reservation{}, passThrough("reservation.create", msgCreateFailed, err)
	}

	s.afterCreate(ctx, r)
	return r, nil
}

// CreateAdmin records a reservation on behalf of staff. No lead time applies and
// capacity is only checked when the reservation is created as confirmed.
func (s *ReservationService) CreateAdmin(ctx context.Context, in ReservationInput) (models.Reservation, error) {
	r, err := s.buildReservation(in)
	if err != nil {
		return models.Reservation{}, err
	}
	r.Status = models.StatusPending
	if in.Status != "" {
		status, err := parseStatus(in.Status)
		if err != nil {
			return models.Reservation{}, err
		}
		r.Status = status
	}

	insert := func(ctx context.Context) error { return s.ledger.Insert(ctx, &r) }
	if r.Status == models.StatusConfirmed {
		err = s.guarded(ctx, r.Date, r.MealPeriod, func(ctx context.Context) error {
			if err := s.admit(ctx, r.Date, r.MealPeriod, r.Guests, nil); err != nil {
				return err
			}
			return insert(ctx)
		})
	} else {
		err = s.tx.RunInTransaction(ctx, insert)
	}
	if err != nil {
		return models.Reservation{}, passThrough("reservation.create", msgCreateFailed, err)
	}

	s.afterCreate(ctx, r)
	return r, nil
}

// Update applies an admin edit. When the result is confirmed and either the status,
// date, meal period or guest count changed, the edit must pass the admission check with
// the reservation's own previous guests left out of the sum.
func (s *ReservationService) Update(ctx context.Context, id uint, in ReservationUpdate) (models.Reservation, error) {
	patch, err := s.buildPatch(in)
	if err != nil {
		return models.Reservation{}, err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		before, err := s.ledger.Get(ctx, id)
		if err != nil {
			return models.Reservation{}, passThrough("reservation.update", msgUpdateFailed, err)
		}
		target := before
		patch.Apply(&target)

		var (
			updated models.Reservation
			moved   bool
		)
		err = s.guarded(ctx, target.Date, target.MealPeriod, func(ctx context.Context) error {
			// re-read under the slot lock; a concurrent edit may have moved the reservation
			current, err := s.ledger.Get(ctx, id)
			if err != nil {
				return err
			}
			next := current
			patch.Apply(&next)
			if next.Date != target.Date || next.MealPeriod != target.MealPeriod {
				moved = true
				return nil
			}
			before = current

			if !current.Status.CanTransitionTo(next.Status) {
				return &TransitionError{From: string(current.Status), To: string(next.Status)}
			}
			if needsAdmission(current, next) {
				if err := s.admit(ctx, next.Date, next.MealPeriod, next.Guests, &id); err != nil {
					return err
				}
			}
			updated, err = s.ledger.UpdateFields(ctx, id, patch)
			return err
		})
		if err != nil {
			return models.Reservation{}, passThrough("reservation.update", msgUpdateFailed, err)
		}
		if moved {
			continue
		}

		if before.Status != models.StatusConfirmed && updated.Status == models.StatusConfirmed {
			s.publishConfirmed(ctx, updated)
		}
		s.broadcaster.Broadcast(hub.Message{Event: hub.EventReservationUpdate, Data: updated})
		return updated, nil
	}

	return models.Reservation{}, ErrUpdateConflict
}

// UpdateStatus moves a reservation along the status state machine.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint, status string) (models.Reservation, error) {
	return s.Update(ctx, id, ReservationUpdate{Status: &status})
}

// Delete removes a reservation. Unknown ids are ignored.
func (s *ReservationService) Delete(ctx context.Context, id uint) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		return passThrough("reservation.delete", msgDeleteFailed, err)
	}
	s.broadcaster.Broadcast(hub.Message{Event: hub.EventReservationDelete, Data: map[string]uint{"id": id}})
	return nil
}

func (s *ReservationService) Get(ctx context.Context, id uint) (models.Reservation, error) {
	r, err := s.ledger.Get(ctx, id)
	if err != nil {
		return models.Reservation{}, passThrough("reservation.get", msgLoadFailed, err)
	}
	return r, nil
}

// List returns reservations newest date first, earliest time first within a date.
func (s *ReservationService) List(ctx context.Context, date, status, mealPeriod string) ([]models.Reservation, error) {
	var filter models.ReservationFilter
	if date != "" {
		d, err := s.parseDate(date)
		if err != nil {
			return nil, err
		}
		filter.Date = d
	}
	if status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	if mealPeriod != "" {
		p, ok := models.ParseMealPeriod(mealPeriod)
		if !ok {
			return nil, ErrInvalidMealPeriod
		}
		filter.MealPeriod = p
	}

	reservations, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, passThrough("reservation.list", msgLoadFailed, err)
	}
	return reservations, nil
}

// Availability reports capacity, confirmed guests and remaining seats per period for date.
func (s *ReservationService) Availability(ctx context.Context, date string) (Occupancy, error) {
	d, err := s.parseDate(date)
	if err != nil {
		return Occupancy{}, err
	}

	capacity, err := s.capacity.GetSettings(ctx)
	if err != nil {
		return Occupancy{}, passThrough("reservation.availability", msgLoadFailed, err)
	}
	sums, err := s.ledger.SumConfirmedByPeriod(ctx, d)
	if err != nil {
		return Occupancy{}, passThrough("reservation.availability", msgLoadFailed, err)
	}

	occ := Occupancy{Date: d, Periods: make([]PeriodOccupancy, 0, len(models.MealPeriods))}
	for _, p := range models.MealPeriods {
		ceiling, _ := capacity.Ceiling(p)
		remaining := ceiling - sums[p]
		if remaining < 0 {
			remaining = 0
		}
		occ.Periods = append(occ.Periods, PeriodOccupancy{
			MealPeriod: p,
			Capacity:   ceiling,
			Confirmed:  sums[p],
			Remaining:  remaining,
		})
	}
	return occ, nil
}

// TodaySummary returns today's occupancy and reservations.
func (s *ReservationService) TodaySummary(ctx context.Context) (TodaySummary, error) {
	today := s.Today()
	occ, err := s.Availability(ctx, today)
	if err != nil {
		return TodaySummary{}, err
	}
	reservations, err := s.ledger.List(ctx, models.ReservationFilter{Date: today})
	if err != nil {
		return TodaySummary{}, passThrough("reservation.today", msgLoadFailed, err)
	}
	return TodaySummary{Occupancy: occ, Reservations: reservations}, nil
}

// guarded serializes fn against every other admission-guarded write for the slot and
// runs it inside one transaction.
func (s *ReservationService) guarded(ctx context.Context, date string, period models.MealPeriod, fn func(ctx context.Context) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, date, period)
	cancel()
	if err != nil {
		return err
	}
	defer unlock()
	return s.tx.RunInTransaction(ctx, fn)
}

func (s *ReservationService) admit(ctx context.Context, date string, period models.MealPeriod, guests int, excludeID *uint) error {
	d, err := s.engine.Check(ctx, date, period, guests, excludeID)
	if err != nil {
		return err
	}
	if !d.Admitted {
		utils.InfoLogger.WithFields(logrus.Fields{
			"date":        date,
			"meal_period": period,
			"requested":   guests,
			"remaining":   d.Remaining,
		}).Info("reservation rejected: capacity exceeded")
	}
	return d.Err()
}

// needsAdmission reports whether moving from before to after must pass the capacity check.
func needsAdmission(before, after models.Reservation) bool {
	if after.Status != models.StatusConfirmed {
		return false
	}
	return before.Status != models.StatusConfirmed ||
		before.Date != after.Date ||
		before.MealPeriod != after.MealPeriod ||
		before.Guests != after.Guests
}

func (s *ReservationService) afterCreate(ctx context.Context, r models.Reservation) {
	utils.InfoLogger.WithFields(logrus.Fields{
		"id":          r.ID,
		"date":        r.Date,
		"meal_period": r.MealPeriod,
		"guests":      r.Guests,
		"status":      r.Status,
	}).Info("reservation created")

	if r.Status == models.StatusConfirmed {
		s.publishConfirmed(ctx, r)
	}
	s.broadcaster.Broadcast(hub.Message{Event: hub.EventReservationCreate, Data: r})
}

// publishConfirmed never fails the caller; the reservation is already committed.
func (s *ReservationService) publishConfirmed(ctx context.Context, r models.Reservation) {
	event := queue.ReservationConfirmedEvent{
		ReservationID: r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Date:          r.Date,
		Time:          r.Time,
		MealPeriod:    string(r.MealPeriod),
		Guests:        r.Guests,
		ConfirmedAt:   s.now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishReservationConfirmed(ctx, event); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"id":    r.ID,
			"error": err.Error(),
		}).Error("failed to publish reservation.confirmed")
	}
}

func (s *ReservationService) buildReservation(in ReservationInput) (models.Reservation, error) {
	period, ok := models.ParseMealPeriod(in.MealPeriod)
	if !ok {
		return models.Reservation{}, ErrInvalidMealPeriod
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return models.Reservation{}, err
	}
	if err := validateTime(in.Time); err != nil {
		return models.Reservation{}, err
	}
	if err := s.validateGuests(in.Guests); err != nil {
		return models.Reservation{}, err
	}

	return models.Reservation{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Date:       date,
		Time:       in.Time,
		Guests:     in.Guests,
		MealPeriod: period,
		Notes:      in.Notes,
	}, nil
}

func (s *ReservationService) buildPatch(in ReservationUpdate) (models.ReservationPatch, error) {
	patch := models.ReservationPatch{
		Name:  trimmed(in.Name),
		Email: trimmed(in.Email),
		Phone: trimmed(in.Phone),
		Notes: in.Notes,
	}
	if in.MealPeriod != nil {
		p, ok := models.ParseMealPeriod(*in.MealPeriod)
		if !ok {
			return patch, ErrInvalidMealPeriod
		}
		patch.MealPeriod = &p
	}
	if in.Date != nil {
		d, err := s.parseDate(*in.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if in.Time != nil {
		if err := validateTime(*in.Time); err != nil {
			return patch, err
		}
		patch.Time = in.Time
	}
	if in.Guests != nil {
		if err := s.validateGuests(*in.Guests); err != nil {
			return patch, err
		}
		patch.Guests = in.Guests
	}
	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &st
	}
	return patch, nil
}

func (s *ReservationService) parseDate(value string) (string, error) {
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(value), s.location)
	if err != nil {
		return "", &ValidationError{Field: "date", Message: "Data inválida."}
	}
	return d.Format(models.DateLayout), nil
}

func (s *ReservationService) validateGuests(guests int) error {
	if guests < 1 || guests > s.maxGuests {
		return &ValidationError{
			Field:   "guests",
			Message: fmt.Sprintf("O número de convidados deve estar entre 1 e %d.", s.maxGuests),
		}
	}
	return nil
}

func validateTime(value string) error {
	if _, err := time.Parse(timeLayout, value); err != nil {
		return &ValidationError{Field: "time", Message: "Horário inválido."}
	}
	return nil
}

func parseStatus(value string) (models.ReservationStatus, error) {
	st := models.ReservationStatus(strings.ToLower(strings.TrimSpace(value)))
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Message: "Status de reserva inválido."}
	}
	return st, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
