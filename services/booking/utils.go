package booking

import (
	"agendabot/utils"
	"agendabot/utils/apperr"
)

type requestedSlot struct {
	date  string
	clock string
	start int
}

func validateBookRequest(req BookRequest) (requestedSlot, error) {
	if req.CompanyID == "" {
		return requestedSlot{}, apperr.InvalidArgument("company is required")
	}
	if req.Client.ID == "" {
		return requestedSlot{}, apperr.Precondition("client profile is required before booking")
	}
	if req.Service.ID == "" {
		return requestedSlot{}, apperr.InvalidArgument("service is required")
	}
	if req.Professional.ID == "" {
		return requestedSlot{}, apperr.Precondition("professional must be chosen before booking")
	}
	for _, owner := range []string{req.Client.CompanyID, req.Service.CompanyID, req.Professional.CompanyID} {
		if owner != req.CompanyID {
			return requestedSlot{}, apperr.TenantMismatch("booking references data of another company")
		}
	}
	if req.Service.DurationMinutes <= 0 {
		return requestedSlot{}, apperr.InvalidArgument("service %s has no duration", req.Service.Name)
	}

	date, err := utils.NormalizeDate(req.Date)
	if err != nil {
		return requestedSlot{}, apperr.InvalidArgument("%v", err)
	}
	clock, err := utils.NormalizeClock(req.Time)
	if err != nil {
		return requestedSlot{}, apperr.InvalidArgument("%v", err)
	}
	start, err := utils.ClockToMinutes(clock)
	if err != nil {
		return requestedSlot{}, apperr.InvalidArgument("%v", err)
	}
	return requestedSlot{date: date, clock: clock, start: start}, nil
}
