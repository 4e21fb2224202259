package availability

import (
	"agendabot/models"
	"agendabot/utils"
)

// Window is everything slot generation needs for one day, in minutes from
// midnight.
type Window struct {
	Open     int
	Close    int
	Earliest int
	Step     int
	Duration int
	Period   models.Period
	// FitBeforeClose requires start+Duration <= Close instead of start <= Close.
	FitBeforeClose bool
}

// Generate lists "HH:MM" starts in ascending order. busy must contain only
// non-cancelled appointments of the professional on that day.
func Generate(w Window, busy []models.Appointment) []string {
	step := w.Step
	if step <= 0 {
		step = 30
	}
	last := w.Close
	if w.FitBeforeClose {
		last = w.Close - w.Duration
	}

	out := []string{}
	for start := w.Open; start <= last; start += step {
		if start < w.Earliest {
			continue
		}
		if start >= 24*60 {
			break
		}
		if !w.Period.Contains(start / 60) {
			continue
		}
		if overlapsAny(busy, start, start+w.Duration) {
			continue
		}
		out = append(out, utils.MinutesToClock(start))
	}
	return out
}

func overlapsAny(busy []models.Appointment, start, end int) bool {
	for _, a := range busy {
		if a.Overlaps(start, end) {
			return true
		}
	}
	return false
}
