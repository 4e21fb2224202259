package models

import "time"

// DayHours is the opening window of one weekday. OpenTime/CloseTime are "HH:MM".
type DayHours struct {
	Open      bool   `bson:"open" json:"open"`
	OpenTime  string `bson:"open_time,omitempty" json:"open_time,omitempty"`
	CloseTime string `bson:"close_time,omitempty" json:"close_time,omitempty"`
}

// BusinessCalendar maps a lowercase English weekday ("monday") to its hours.
type BusinessCalendar map[string]DayHours

// For returns the hours configured for the given weekday.
func (c BusinessCalendar) For(day time.Weekday) (DayHours, bool) {
	h, ok := c[WeekdayKey(day)]
	return h, ok
}

// WeekdayKey is the calendar key for a weekday.
func WeekdayKey(day time.Weekday) string {
	switch day {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}

// Tenant is a business using the agent. Every other record is scoped by its ID.
type Tenant struct {
	ID           string           `bson:"id" json:"id"`
	Name         string           `bson:"name" json:"name"`
	Address      string           `bson:"address,omitempty" json:"address,omitempty"`
	Phone        string           `bson:"phone,omitempty" json:"phone,omitempty"`
	Timezone     string           `bson:"timezone" json:"timezone"`
	AgentEnabled bool             `bson:"agent_enabled" json:"agent_enabled"`
	Calendar     BusinessCalendar `bson:"calendar" json:"calendar"`
	UpdatedAt    time.Time        `bson:"updated_at" json:"updated_at"`
}
