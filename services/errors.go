package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// Generic user-facing messages for persistence failures.
const (
	msgCreateFailed   = "Erro ao criar reserva. Tente novamente mais tarde."
	msgUpdateFailed   = "Erro ao atualizar reserva. Tente novamente mais tarde."
	msgDeleteFailed   = "Erro ao excluir reserva. Tente novamente mais tarde."
	msgLoadFailed     = "Erro ao carregar reservas. Tente novamente mais tarde."
	msgSettingsLoad   = "Erro ao carregar configurações de reservas."
	msgSettingsUpdate = "Erro ao atualizar configurações de reservas."
	msgBusy           = "O sistema está ocupado. Tente novamente em instantes."
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrInvalidMealPeriod rejects anything other than breakfast, lunch or dinner.
var ErrInvalidMealPeriod = &ValidationError{Field: "meal_period", Message: "Período de refeição inválido."}

var (
	ErrLeadTime            = errors.New("Reservas devem ser feitas para uma data futura (a partir de amanhã).")
	ErrReservationNotFound = errors.New("Reserva não encontrada.")
	ErrInvalidTransition   = errors.New("Transição de status inválida.")
)

// ErrUpdateConflict means concurrent edits kept moving the reservation to another slot.
var ErrUpdateConflict = errors.New("A reserva foi alterada por outra operação. Tente novamente.")

// CapacityError is the rejection outcome of an admission check.
type CapacityError struct {
	Requested int
	Remaining int
	Shortfall int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Desculpe, não há mais vagas suficientes para %d pessoas neste horário. Vagas restantes: %d.",
		e.Requested, e.Remaining)
}

// TransitionError is returned for a status change the state machine forbids.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Não é possível alterar o status de %q para %q.", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// PersistenceError wraps a store failure behind a short localized message.
type PersistenceError struct {
	Op      string
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }

func (e *PersistenceError) Unwrap() error { return e.Err }

// persistenceError logs the cause once, where it is caught.
func persistenceError(op, message string, err error) error {
	utils.ErrorLogger.WithFields(logrus.Fields{
		"op":    op,
		"error": err.Error(),
	}).Error("persistence failure")
	return &PersistenceError{Op: op, Message: message, Err: err}
}

// passThrough keeps typed service errors and wraps anything else as a persistence failure.
func passThrough(op, message string, err error) error {
	var (
		validation *ValidationError
		capacity   *CapacityError
		persist    *PersistenceError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &capacity), errors.As(err, &persist),
		errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrLeadTime), errors.Is(err, ErrLockTimeout), errors.Is(err, ErrUpdateConflict):
		return err
	}
	return persistenceError(op, message, err)
}
