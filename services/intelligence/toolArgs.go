package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"agendabot/models"
	"agendabot/utils"
	"agendabot/utils/apperr"

	"github.com/google/uuid"
)

// toolArgs is implemented by every per-tool argument struct. normalize
// coerces loosely formatted values and rejects invalid ones.
type toolArgs interface {
	normalize() error
}

// looseString accepts a JSON string, number or boolean. Models sometimes send
// 14 instead of "14:00" or a numeric id.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*s = looseString(n.String())
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		*s = looseString(strconv.FormatBool(flag))
		return nil
	}
	return fmt.Errorf("expected a string, got %s", b)
}

func (s looseString) String() string { return string(s) }

type CheckAvailabilityArgs struct {
	Date         looseString `json:"date"`
	Service      looseString `json:"service"`
	Professional looseString `json:"professional"`
	Period       looseString `json:"period"`
}

func (a *CheckAvailabilityArgs) normalize() error {
	if err := requireFields(map[string]looseString{"date": a.Date, "service": a.Service}); err != nil {
		return err
	}
	date, err := utils.NormalizeDate(a.Date.String())
	if err != nil {
		return apperr.InvalidArgument("%v", err)
	}
	a.Date = looseString(date)

	period, err := parsePeriod(a.Period.String())
	if err != nil {
		return err
	}
	a.Period = looseString(period)
	return nil
}

type CreateAppointmentArgs struct {
	Service      looseString `json:"service"`
	Professional looseString `json:"professional"`
	Date         looseString `json:"date"`
	Time         looseString `json:"time"`
	ClientName   looseString `json:"client_name"`
}

func (a *CreateAppointmentArgs) normalize() error {
	if err := requireFields(map[string]looseString{"service": a.Service, "date": a.Date, "time": a.Time}); err != nil {
		return err
	}
	date, err := utils.NormalizeDate(a.Date.String())
	if err != nil {
		return apperr.InvalidArgument("%v", err)
	}
	clock, err := utils.NormalizeClock(a.Time.String())
	if err != nil {
		return apperr.InvalidArgument("%v", err)
	}
	a.Date, a.Time = looseString(date), looseString(clock)
	return nil
}

type ListAppointmentsArgs struct{}

func (a *ListAppointmentsArgs) normalize() error { return nil }

type CancelAppointmentArgs struct {
	AppointmentID looseString `json:"appointment_id"`
}

func (a *CancelAppointmentArgs) normalize() error {
	if err := requireFields(map[string]looseString{"appointment_id": a.AppointmentID}); err != nil {
		return err
	}
	if _, err := uuid.Parse(a.AppointmentID.String()); err != nil {
		return apperr.InvalidIdentifier("%q is not a valid appointment id", a.AppointmentID)
	}
	return nil
}

type GetBusinessInfoArgs struct{}

func (a *GetBusinessInfoArgs) normalize() error { return nil }

type GetClientProfileArgs struct {
	Name looseString `json:"name"`
}

func (a *GetClientProfileArgs) normalize() error { return nil }

// decodeArgs picks the argument struct for a tool, fills it from the
// model's loosely typed map and normalizes it.
func decodeArgs(tool string, raw map[string]any) (toolArgs, error) {
	var args toolArgs
	switch tool {
	case ToolCheckAvailability:
		args = &CheckAvailabilityArgs{}
	case ToolCreateAppointment:
		args = &CreateAppointmentArgs{}
	case ToolListAppointments:
		args = &ListAppointmentsArgs{}
	case ToolCancelAppointment:
		args = &CancelAppointmentArgs{}
	case ToolGetBusinessInfo:
		args = &GetBusinessInfoArgs{}
	case ToolGetClientProfile:
		args = &GetClientProfileArgs{}
	default:
		return nil, apperr.InvalidArgument("unknown tool %q", tool)
	}

	if len(raw) > 0 {
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, apperr.InvalidArgument("arguments are not valid JSON: %v", err)
		}
		if err := json.Unmarshal(b, args); err != nil {
			return nil, apperr.InvalidArgument("invalid arguments for %s: %v", tool, err)
		}
	}
	if err := args.normalize(); err != nil {
		return nil, err
	}
	return args, nil
}

func requireFields(fields map[string]looseString) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v.String()) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperr.InvalidArgument("missing required argument(s): %s", strings.Join(missing, ", "))
}

func parsePeriod(s string) (models.Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return models.PeriodAll, nil
	case "morning", "manha", "manhã":
		return models.PeriodMorning, nil
	case "afternoon", "tarde":
		return models.PeriodAfternoon, nil
	case "evening", "night", "noite":
		return models.PeriodEvening, nil
	default:
		return "", apperr.InvalidArgument("period must be one of morning, afternoon, evening or all")
	}
}
