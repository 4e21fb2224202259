package ai

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"agendabot/models"
	"agendabot/services/availability"
	"agendabot/services/booking"
	"agendabot/utils"
	"agendabot/utils/apperr"
)

func (d *Dispatcher) checkAvailability(ctx context.Context, conv *Conversation, a *CheckAvailabilityArgs) (map[string]any, error) {
	tenant := conv.Tenant
	svc, err := d.Resolver.ResolveService(ctx, tenant.ID, a.Service.String())
	if err != nil {
		return nil, err
	}

	resp := map[string]any{
		"date":    a.Date.String(),
		"service": serviceView(*svc),
	}
	q := availability.Query{
		Date:            a.Date.String(),
		DurationMinutes: svc.DurationMinutes,
		Period:          models.Period(a.Period),
	}
	if a.Professional != "" {
		pro, err := d.Resolver.ResolveProfessional(ctx, tenant.ID, a.Professional.String())
		if err != nil {
			return nil, err
		}
		q.ProfessionalID = pro.ID
		resp["professional"] = professionalView(*pro)
	}

	times, err := d.Availability.AvailableTimes(ctx, tenant, q)
	if err != nil {
		return nil, err
	}
	resp["times"] = times
	if len(times) == 0 {
		resp["message"] = "no free times on this date"
	}
	return resp, nil
}

func (d *Dispatcher) createAppointment(ctx context.Context, conv *Conversation, a *CreateAppointmentArgs) (map[string]any, error) {
	tenant := conv.Tenant

	name := a.ClientName.String()
	if name == "" {
		if stored, err := d.existingClient(ctx, conv); err == nil {
			name = stored.Name
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
	}
	if name == "" {
		return nil, apperr.Precondition("ask the client for their name before booking")
	}
	if a.Professional == "" {
		return nil, apperr.Precondition("ask which professional the client wants before booking")
	}

	svc, err := d.Resolver.ResolveService(ctx, tenant.ID, a.Service.String())
	if err != nil {
		return nil, err
	}
	pro, err := d.Resolver.ResolveProfessional(ctx, tenant.ID, a.Professional.String())
	if err != nil {
		return nil, err
	}

	times, err := d.Availability.AvailableTimes(ctx, tenant, availability.Query{
		Date:            a.Date.String(),
		ProfessionalID:  pro.ID,
		DurationMinutes: svc.DurationMinutes,
	})
	if err != nil {
		return nil, err
	}
	if !slices.Contains(times, a.Time.String()) {
		if len(times) == 0 {
			return nil, apperr.SlotTaken("%s has no free times on %s", pro.Name, a.Date)
		}
		return nil, apperr.SlotTaken("%s at %s is not available; free times: %s", a.Date, a.Time, strings.Join(times, ", "))
	}

	client, err := d.ensureClient(ctx, conv, name)
	if err != nil {
		return nil, err
	}

	appt, err := d.Booking.Book(ctx, booking.BookRequest{
		CompanyID:    tenant.ID,
		Client:       *client,
		Service:      *svc,
		Professional: *pro,
		Date:         a.Date.String(),
		Time:         a.Time.String(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"appointment": appointmentView(*appt)}, nil
}

func (d *Dispatcher) listAppointments(ctx context.Context, conv *Conversation) (map[string]any, error) {
	client, err := d.existingClient(ctx, conv)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return map[string]any{"appointments": []any{}}, nil
	}
	if err != nil {
		return nil, err
	}

	appts, err := d.Booking.ListForClient(ctx, conv.Tenant.ID, client.ID, d.today(conv.Tenant))
	if err != nil {
		return nil, err
	}
	views := make([]map[string]any, 0, len(appts))
	for _, appt := range appts {
		views = append(views, appointmentView(appt))
	}
	return map[string]any{"appointments": views}, nil
}

func (d *Dispatcher) cancelAppointment(ctx context.Context, conv *Conversation, a *CancelAppointmentArgs) (map[string]any, error) {
	client, err := d.existingClient(ctx, conv)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("the client has no appointments")
		}
		return nil, err
	}

	upcoming, err := d.Booking.ListForClient(ctx, conv.Tenant.ID, client.ID, d.today(conv.Tenant))
	if err != nil {
		return nil, err
	}
	owned := slices.ContainsFunc(upcoming, func(appt models.Appointment) bool { return appt.ID == a.AppointmentID.String() })
	if !owned {
		return nil, apperr.NotFound("no upcoming appointment %s for this client", a.AppointmentID)
	}

	appt, err := d.Booking.Cancel(ctx, conv.Tenant.ID, a.AppointmentID.String())
	if err != nil {
		return nil, err
	}
	return map[string]any{"appointment": appointmentView(*appt)}, nil
}

func (d *Dispatcher) businessInfo(ctx context.Context, conv *Conversation) (map[string]any, error) {
	tenant := conv.Tenant
	services, err := d.Catalog.ListServices(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	professionals, err := d.Catalog.ListProfessionals(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list professionals: %w", err)
	}

	svcViews := make([]map[string]any, 0, len(services))
	for _, s := range services {
		svcViews = append(svcViews, serviceView(s))
	}
	proViews := make([]map[string]any, 0, len(professionals))
	for _, p := range professionals {
		proViews = append(proViews, professionalView(p))
	}

	now := d.now().In(d.location(tenant))
	return map[string]any{
		"name":          tenant.Name,
		"address":       tenant.Address,
		"phone":         tenant.Phone,
		"timezone":      d.location(tenant).String(),
		"today":         now.Format(utils.ISODate),
		"weekday":       models.WeekdayKey(now.Weekday()),
		"now":           now.Format(utils.ClockTime),
		"opening_hours": hoursView(tenant.Calendar),
		"services":      svcViews,
		"professionals": proViews,
	}, nil
}

func (d *Dispatcher) clientProfile(ctx context.Context, conv *Conversation, a *GetClientProfileArgs) (map[string]any, error) {
	client, err := d.ensureClient(ctx, conv, a.Name.String())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"client_id":  client.ID,
		"name":       client.Name,
		"name_known": client.Name != "",
	}, nil
}

// existingClient returns the stored client without creating one.
func (d *Dispatcher) existingClient(ctx context.Context, conv *Conversation) (*models.Client, error) {
	if c := conv.cachedClient(); c != nil {
		return c, nil
	}
	client, err := d.Clients.GetByExternalID(ctx, conv.Tenant.ID, conv.ClientExternalID)
	if err != nil {
		return nil, err
	}
	conv.setClient(client)
	return client, nil
}

// ensureClient fetches or creates the client and records name when it is new
// information.
func (d *Dispatcher) ensureClient(ctx context.Context, conv *Conversation, name string) (*models.Client, error) {
	client := conv.cachedClient()
	if client == nil {
		var err error
		client, err = d.Clients.GetOrCreate(ctx, conv.Tenant.ID, conv.ClientExternalID, name)
		if err != nil {
			return nil, err
		}
	}
	if name != "" && client.Name != name {
		if err := d.Clients.UpdateName(ctx, conv.Tenant.ID, client.ID, name); err != nil {
			return nil, err
		}
		updated := *client
		updated.Name = name
		client = &updated
	}
	conv.setClient(client)
	return client, nil
}

func (d *Dispatcher) today(tenant *models.Tenant) string {
	return d.now().In(d.location(tenant)).Format(utils.ISODate)
}

func serviceView(s models.Service) map[string]any {
	return map[string]any{
		"id":               s.ID,
		"name":             s.Name,
		"duration_minutes": s.DurationMinutes,
		"price":            s.Price,
	}
}

func professionalView(p models.Professional) map[string]any {
	return map[string]any{"id": p.ID, "name": p.Name}
}

func appointmentView(a models.Appointment) map[string]any {
	return map[string]any{
		"id":           a.ID,
		"service":      a.ServiceName,
		"professional": a.ProfessionalName,
		"date":         a.Date,
		"time":         a.Time,
		"price":        a.Price,
		"status":       string(a.Status),
	}
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func hoursView(cal models.BusinessCalendar) map[string]any {
	out := make(map[string]any, len(weekdays))
	for _, day := range weekdays {
		h, ok := cal[day]
		if !ok || !h.Open {
			out[day] = "closed"
			continue
		}
		out[day] = h.OpenTime + "-" + h.CloseTime
	}
	return out
}
