package models

// Service is a bookable catalog entry.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	CompanyID       string  `bson:"company_id" json:"company_id"`
	Name            string  `bson:"name" json:"name"`
	DurationMinutes int     `bson:"duration_minutes" json:"duration_minutes"`
	Price           float64 `bson:"price" json:"price"`
	Active          bool    `bson:"active" json:"active"`
}

// Professional is a provider that appointments are booked against.
type Professional struct {
	ID        string `bson:"id" json:"id"`
	CompanyID string `bson:"company_id" json:"company_id"`
	Name      string `bson:"name" json:"name"`
	Active    bool   `bson:"active" json:"active"`
}

// EntityKind selects which catalog the resolver searches.
type EntityKind string

const (
	KindService      EntityKind = "service"
	KindProfessional EntityKind = "professional"
)

// CatalogEntry is the name-bearing view of a Service or Professional used by
// the resolver.
type CatalogEntry struct {
	ID        string
	CompanyID string
	Name      string
	Active    bool
}

func (s Service) Entry() CatalogEntry {
	return CatalogEntry{ID: s.ID, CompanyID: s.CompanyID, Name: s.Name, Active: s.Active}
}

func (p Professional) Entry() CatalogEntry {
	return CatalogEntry{ID: p.ID, CompanyID: p.CompanyID, Name: p.Name, Active: p.Active}
}
