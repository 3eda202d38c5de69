package models

import "time"

// SettingsRowID is the primary key of the single reservation_settings row.
const SettingsRowID uint = 1

type ReservationSettings struct {
	ID           uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	MaxBreakfast uint      `gorm:"not null;default:30" json:"max_breakfast"`
	MaxLunch     uint      `gorm:"not null;default:50" json:"max_lunch"`
	MaxDinner    uint      `gorm:"not null;default:40" json:"max_dinner"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// Capacity is the set of per-period ceilings.
type Capacity struct {
	MaxBreakfast uint `json:"max_breakfast"`
	MaxLunch     uint `json:"max_lunch"`
	MaxDinner    uint `json:"max_dinner"`
}

// DefaultCapacity is served while no settings row exists.
var DefaultCapacity = Capacity{MaxBreakfast: 30, MaxLunch: 50, MaxDinner: 40}

// Ceiling returns the ceiling for p. ok is false for an unknown period.
func (c Capacity) Ceiling(p MealPeriod) (ceiling int, ok bool) {
	switch p {
	case MealBreakfast:
		return int(c.MaxBreakfast), true
	case MealLunch:
		return int(c.MaxLunch), true
	case MealDinner:
		return int(c.MaxDinner), true
	}
	return 0, false
}

func (s ReservationSettings) Capacity() Capacity {
	return Capacity{MaxBreakfast: s.MaxBreakfast, MaxLunch: s.MaxLunch, MaxDinner: s.MaxDinner}
}
