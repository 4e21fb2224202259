package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusFinalized AppointmentStatus = "finalized"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a reservation of a professional's time. StartMinute/EndMinute
// are minutes from midnight in the tenant's timezone; EndMinute is exclusive.
type Appointment struct {
	ID               string            `bson:"id" json:"id"`
	CompanyID        string            `bson:"company_id" json:"company_id"`
	ServiceID        string            `bson:"service_id" json:"service_id"`
	ServiceName      string            `bson:"service_name" json:"service_name"`
	ProfessionalID   string            `bson:"professional_id" json:"professional_id"`
	ProfessionalName string            `bson:"professional_name" json:"professional_name"`
	ClientID         string            `bson:"client_id" json:"client_id"`
	ClientName       string            `bson:"client_name,omitempty" json:"client_name,omitempty"`
	Date             string            `bson:"date" json:"date"` // YYYY-MM-DD
	Time             string            `bson:"time" json:"time"` // HH:MM
	StartMinute      int               `bson:"start_minute" json:"start_minute"`
	EndMinute        int               `bson:"end_minute" json:"end_minute"`
	DurationMinutes  int               `bson:"duration_minutes" json:"duration_minutes"`
	Price            float64           `bson:"price" json:"price"`
	Status           AppointmentStatus `bson:"status" json:"status"`
	// Active mirrors Status != cancelled so a partial unique index can cover it.
	Active    bool      `bson:"active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Overlaps reports whether [start, end) intersects the appointment's interval.
func (a Appointment) Overlaps(start, end int) bool {
	return !(end <= a.StartMinute || start >= a.EndMinute)
}
