package services

import (
	"context"

	"github.com/yeremiapane/restaurant-reservations/metrics"
	"github.com/yeremiapane/restaurant-reservations/models"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Admitted  bool `json:"admitted"`
	Ceiling   int  `json:"ceiling"`
	Current   int  `json:"current"`
	Requested int  `json:"requested"`
	Remaining int  `json:"remaining"`
	Shortfall int  `json:"shortfall,omitempty"`
}

// Err returns the CapacityError for a rejected decision and nil otherwise.
func (d Decision) Err() error {
	if d.Admitted {
		return nil
	}
	return &CapacityError{Requested: d.Requested, Remaining: d.Remaining, Shortfall: d.Shortfall}
}

// Admit decides whether requested guests fit on top of current under ceiling.
func Admit(ceiling, current, requested int) Decision {
	remaining := ceiling - current
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{
		Ceiling:   ceiling,
		Current:   current,
		Requested: requested,
		Remaining: remaining,
	}
	total := current + requested
	if total <= ceiling {
		d.Admitted = true
		return d
	}
	d.Shortfall = total - ceiling
	return d
}

// AdmissionEngine is the single authority on whether guests may enter the confirmed status.
type AdmissionEngine struct {
	capacity CapacityStore
	ledger   Ledger
}

func NewAdmissionEngine(capacity CapacityStore, ledger Ledger) *AdmissionEngine {
	return &AdmissionEngine{capacity: capacity, ledger: ledger}
}

// Check evaluates an admission for (date, period). excludeID leaves one reservation out of
// the confirmed sum, so an edit is measured without its own previous guest count.
func (e *AdmissionEngine) Check(ctx context.Context, date string, period models.MealPeriod, requested int, excludeID *uint) (Decision, error) {
	if !period.Valid() {
		return Decision{}, ErrInvalidMealPeriod
	}

	capacity, err := e.capacity.GetSettings(ctx)
	if err != nil {
		return Decision{}, err
	}
	ceiling, _ := capacity.Ceiling(period)

	current, err := e.ledger.CountConfirmedGuests(ctx, date, period, excludeID)
	if err != nil {
		return Decision{}, err
	}

	d := Admit(ceiling, current, requested)
	metrics.ObserveAdmission(string(period), d.Admitted)
	return d, nil
}
