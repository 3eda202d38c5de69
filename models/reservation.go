package models

import (
	"strings"
	"time"
)

// MealPeriod is the unit of capacity accounting.
type MealPeriod string

const (
	MealBreakfast MealPeriod = "breakfast"
	MealLunch     MealPeriod = "lunch"
	MealDinner    MealPeriod = "dinner"
)

// MealPeriods lists the known periods in service order.
var MealPeriods = []MealPeriod{MealBreakfast, MealLunch, MealDinner}

// Valid reports whether p is one of the three known periods.
func (p MealPeriod) Valid() bool {
	switch p {
	case MealBreakfast, MealLunch, MealDinner:
		return true
	}
	return false
}

// ParseMealPeriod normalizes s and reports whether it names a known period.
func ParseMealPeriod(s string) (MealPeriod, bool) {
	p := MealPeriod(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
	StatusNoShow    ReservationStatus = "no_show"
)

// allowed transitions; statuses missing from the map are terminal
var statusTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted, StatusNoShow},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s ReservationStatus) Terminal() bool {
	_, ok := statusTransitions[s]
	return !ok
}

// CanTransitionTo reports whether a reservation may move from s to next.
// Keeping the same status is always allowed.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s == next {
		return true
	}
	for _, candidate := range statusTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// DateLayout is the storage format of Reservation.Date.
const DateLayout = "2006-01-02"

type Reservation struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Name       string            `gorm:"type:varchar(255);not null" json:"name"`
	Email      string            `gorm:"type:varchar(255);not null" json:"email"`
	Phone      string            `gorm:"type:varchar(50);not null" json:"phone"`
	Date       string            `gorm:"type:varchar(10);not null;index:idx_reservation_slot,priority:1" json:"date"`
	Time       string            `gorm:"type:varchar(5);not null" json:"time"`
	Guests     int               `gorm:"not null" json:"guests"`
	MealPeriod MealPeriod        `gorm:"type:varchar(20);not null;index:idx_reservation_slot,priority:2" json:"meal_period"`
	Status     ReservationStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_reservation_slot,priority:3" json:"status"`
	Notes      *string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at"`
}

// ReservationPatch carries the fields of a partial update. Nil fields are left untouched.
type ReservationPatch struct {
	Name       *string
	Email      *string
	Phone      *string
	Date       *string
	Time       *string
	Guests     *int
	MealPeriod *MealPeriod
	Status     *ReservationStatus
	Notes      *string
}

// Apply merges the patch into r.
func (p ReservationPatch) Apply(r *Reservation) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Time != nil {
		r.Time = *p.Time
	}
	if p.Guests != nil {
		r.Guests = *p.Guests
	}
	if p.MealPeriod != nil {
		r.MealPeriod = *p.MealPeriod
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Notes != nil {
		r.Notes = p.Notes
	}
}

// ReservationFilter narrows admin listings. Empty fields match everything.
type ReservationFilter struct {
	Date       string
	Status     ReservationStatus
	MealPeriod MealPeriod
}
