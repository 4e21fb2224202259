package models

import "time"

// AppointmentCreatedPayload is queued after a successful booking.
type AppointmentCreatedPayload struct {
	AppointmentID    string    `json:"appointment_id"`
	CompanyID        string    `json:"company_id"`
	ClientID         string    `json:"client_id"`
	ClientName       string    `json:"client_name,omitempty"`
	ServiceName      string    `json:"service_name"`
	ProfessionalName string    `json:"professional_name"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	CreatedAt        time.Time `json:"created_at"`
}
