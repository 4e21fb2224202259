package ai

import (
	"fmt"
	"strings"
	"time"

	"agendabot/models"
	"agendabot/utils"
)

// SystemPrompt tells the model who it works for and what today is. Dates the
// model produces are only as good as the "today" it is given, so it is always
// computed in the tenant's timezone.
func SystemPrompt(tenant *models.Tenant, loc *time.Location, now time.Time, clientName string) string {
	now = now.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "You are the scheduling assistant of %s.", tenant.Name)
	if tenant.Address != "" {
		fmt.Fprintf(&b, " Address: %s.", tenant.Address)
	}
	fmt.Fprintf(&b, "\nToday is %s (%s), current time %s, timezone %s.",
		now.Format(utils.ISODate), models.WeekdayKey(now.Weekday()), now.Format(utils.ClockTime), loc.String())
	if clientName != "" {
		fmt.Fprintf(&b, "\nThe client's chat display name is %q; confirm it before using it for a booking.", clientName)
	}
	b.WriteString(`
Rules:
- Answer in the client's language, briefly.
- Use the tools for anything about services, prices, professionals, opening hours, free times and appointments. Never invent them.
- Dates passed to tools are YYYY-MM-DD and times are HH:MM (24h).
- A combined request such as "haircut and beard" is usually one service; check the catalog before booking two.
- Before create_appointment, confirm service, professional, date, time and the client's name.
- If a tool fails, explain the problem in plain words and offer an alternative.`)
	return b.String()
}
