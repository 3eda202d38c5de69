// Package queue publishes reservation domain events to the message broker.
package queue

// ReservationConfirmedQueue is the durable queue receiving ReservationConfirmedEvent.
const ReservationConfirmedQueue = "reservation.confirmed"

// ReservationConfirmedEvent is published whenever a reservation enters the confirmed status.
// It carries enough for downstream consumers (mailers, analytics) to work without reading
// the database.
type ReservationConfirmedEvent struct {
	ReservationID uint   `json:"reservation_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	MealPeriod    string `json:"meal_period"`
	Guests        int    `json:"guests"`
	ConfirmedAt   string `json:"confirmed_at"`
}
