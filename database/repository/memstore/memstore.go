// Package memstore holds in-memory implementations of the repository
// interfaces. They back unit tests and the local development profile, and
// keep the same tenant scoping and atomicity guarantees as the Mongo stores.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"agendabot/models"
	"agendabot/utils/apperr"

	"github.com/google/uuid"
)

// Tenants implements tenantRepo.TenantRepository.
type Tenants struct {
	mu    sync.RWMutex
	items map[string]models.Tenant
	reads atomic.Int64
}

func NewTenants(tenants ...models.Tenant) *Tenants {
	s := &Tenants{items: make(map[string]models.Tenant)}
	for _, t := range tenants {
		s.items[t.ID] = t
	}
	return s
}

func (s *Tenants) Put(t models.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[t.ID] = t
}

func (s *Tenants) GetTenant(_ context.Context, companyID string) (*models.Tenant, error) {
	s.reads.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[companyID]
	if !ok {
		return nil, apperr.NotFound("tenant %s not found", companyID)
	}
	return &t, nil
}

// Reads is the number of GetTenant calls served.
func (s *Tenants) Reads() int64 { return s.reads.Load() }

// Catalog implements catalogRepo.CatalogRepository.
type Catalog struct {
	mu            sync.RWMutex
	services      []models.Service
	professionals []models.Professional
}

func NewCatalog(services []models.Service, professionals []models.Professional) *Catalog {
	return &Catalog{services: services, professionals: professionals}
}

func (c *Catalog) GetServiceByID(_ context.Context, id string) (*models.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.services {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, apperr.NotFound("service %s not found", id)
}

func (c *Catalog) GetProfessionalByID(_ context.Context, id string) (*models.Professional, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.professionals {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, apperr.NotFound("professional %s not found", id)
}

func (c *Catalog) FindServicesByName(_ context.Context, companyID, name string) ([]models.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Service
	for _, s := range c.services {
		if s.CompanyID == companyID && s.Active && strings.EqualFold(s.Name, name) {
			out = append(out, s)
		}
	}
	return sortedServices(out), nil
}

func (c *Catalog) FindProfessionalsByName(_ context.Context, companyID, name string) ([]models.Professional, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Professional
	for _, p := range c.professionals {
		if p.CompanyID == companyID && p.Active && strings.EqualFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return sortedProfessionals(out), nil
}

func (c *Catalog) SearchServices(_ context.Context, companyID string, terms []string) ([]models.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Service
	for _, s := range c.services {
		if s.CompanyID == companyID && s.Active && containsAny(s.Name, terms) {
			out = append(out, s)
		}
	}
	return sortedServices(out), nil
}

func (c *Catalog) SearchProfessionals(_ context.Context, companyID string, terms []string) ([]models.Professional, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Professional
	for _, p := range c.professionals {
		if p.CompanyID == companyID && p.Active && containsAny(p.Name, terms) {
			out = append(out, p)
		}
	}
	return sortedProfessionals(out), nil
}

func (c *Catalog) ListServices(_ context.Context, companyID string) ([]models.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Service
	for _, s := range c.services {
		if s.CompanyID == companyID && s.Active {
			out = append(out, s)
		}
	}
	return sortedServices(out), nil
}

func (c *Catalog) ListProfessionals(_ context.Context, companyID string) ([]models.Professional, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Professional
	for _, p := range c.professionals {
		if p.CompanyID == companyID && p.Active {
			out = append(out, p)
		}
	}
	return sortedProfessionals(out), nil
}

func containsAny(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func sortedServices(in []models.Service) []models.Service {
	sort.Slice(in, func(i, j int) bool { return in[i].Name < in[j].Name })
	return in
}

func sortedProfessionals(in []models.Professional) []models.Professional {
	sort.Slice(in, func(i, j int) bool { return in[i].Name < in[j].Name })
	return in
}

// Appointments implements appointmentRepo.AppointmentRepository. A single
// mutex makes InsertIfNoOverlap atomic.
type Appointments struct {
	mu    sync.Mutex
	items []models.Appointment
	calls atomic.Int64
}

func NewAppointments(existing ...models.Appointment) *Appointments {
	return &Appointments{items: append([]models.Appointment(nil), existing...)}
}

// Calls is the number of store methods invoked so far.
func (s *Appointments) Calls() int64 { return s.calls.Load() }

func (s *Appointments) ListActive(_ context.Context, companyID, professionalID, date string) ([]models.Appointment, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, a := range s.items {
		if a.CompanyID == companyID && a.ProfessionalID == professionalID && a.Date == date && a.Status != models.StatusCancelled {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out, nil
}

func (s *Appointments) InsertIfNoOverlap(_ context.Context, appt *models.Appointment) error {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.CompanyID == appt.CompanyID && a.ProfessionalID == appt.ProfessionalID &&
			a.Date == appt.Date && a.Status != models.StatusCancelled &&
			a.Overlaps(appt.StartMinute, appt.EndMinute) {
			return apperr.SlotTaken("%s at %s is no longer available", appt.Date, appt.Time)
		}
	}
	s.items = append(s.items, *appt)
	return nil
}

func (s *Appointments) TransitionStatus(_ context.Context, companyID, id string, from []models.AppointmentStatus, to models.AppointmentStatus) (*models.Appointment, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		a := &s.items[i]
		if a.ID != id {
			continue
		}
		if a.CompanyID != companyID {
			return nil, apperr.TenantMismatch("appointment %s belongs to another company", id)
		}
		for _, f := range from {
			if a.Status == f {
				a.Status = to
				a.Active = to != models.StatusCancelled
				a.UpdatedAt = time.Now().UTC()
				out := *a
				return &out, nil
			}
		}
		return nil, apperr.Precondition("appointment %s is %s", id, a.Status)
	}
	return nil, apperr.NotFound("appointment %s not found", id)
}

func (s *Appointments) ListByClient(_ context.Context, companyID, clientID, fromDate string) ([]models.Appointment, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, a := range s.items {
		if a.CompanyID == companyID && a.ClientID == clientID && a.Date >= fromDate && a.Status != models.StatusCancelled {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartMinute < out[j].StartMinute
	})
	return out, nil
}

func (s *Appointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, apperr.NotFound("appointment %s not found", id)
}

// Transcripts implements conversationRepo.TranscriptRepository.
type Transcripts struct {
	mu    sync.Mutex
	items map[models.ConversationKey][]models.Turn
	saves atomic.Int64
}

func NewTranscripts() *Transcripts {
	return &Transcripts{items: make(map[models.ConversationKey][]models.Turn)}
}

func (s *Transcripts) Load(_ context.Context, companyID, clientID string, limit int) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.items[models.ConversationKey{CompanyID: companyID, ClientID: clientID}]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]models.Turn{}, turns...), nil
}

func (s *Transcripts) Save(_ context.Context, companyID, clientID string, turns []models.Turn) error {
	s.saves.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[models.ConversationKey{CompanyID: companyID, ClientID: clientID}] = append([]models.Turn(nil), turns...)
	return nil
}

// Saves is the number of Save calls served.
func (s *Transcripts) Saves() int64 { return s.saves.Load() }

// Clients implements clientRepo.ClientRepository.
type Clients struct {
	mu    sync.Mutex
	items []models.Client
}

func NewClients(existing ...models.Client) *Clients {
	return &Clients{items: append([]models.Client(nil), existing...)}
}

func (s *Clients) GetByExternalID(_ context.Context, companyID, externalID string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.find(companyID, externalID); c != nil {
		out := *c
		return &out, nil
	}
	return nil, apperr.NotFound("client %s not found", externalID)
}

func (s *Clients) GetOrCreate(_ context.Context, companyID, externalID, name string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.find(companyID, externalID); c != nil {
		out := *c
		return &out, nil
	}
	now := time.Now().UTC()
	c := models.Client{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		ExternalID: externalID,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.items = append(s.items, c)
	return &c, nil
}

func (s *Clients) UpdateName(_ context.Context, companyID, clientID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].CompanyID == companyID && s.items[i].ID == clientID {
			s.items[i].Name = name
			s.items[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperr.NotFound("client %s not found", clientID)
}

func (s *Clients) find(companyID, externalID string) *models.Client {
	for i := range s.items {
		if s.items[i].CompanyID == companyID && s.items[i].ExternalID == externalID {
			return &s.items[i]
		}
	}
	return nil
}
