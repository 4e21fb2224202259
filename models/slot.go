package models

// Period narrows availability to a part of the day.
type Period string

const (
	PeriodAll       Period = "all"
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// Contains reports whether an hour of day (0-23) falls inside the period.
func (p Period) Contains(hour int) bool {
	switch p {
	case PeriodMorning:
		return hour >= 5 && hour < 12
	case PeriodAfternoon:
		return hour >= 12 && hour < 18
	case PeriodEvening:
		return hour >= 18 && hour < 24
	default:
		return true
	}
}
