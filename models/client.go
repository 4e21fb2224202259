package models

import "time"

// Client is an end customer of a tenant, keyed by the chat identifier
// (usually a phone number) the conversation arrives from.
type Client struct {
	ID         string    `bson:"id" json:"id"`
	CompanyID  string    `bson:"company_id" json:"company_id"`
	ExternalID string    `bson:"external_id" json:"external_id"`
	Name       string    `bson:"name,omitempty" json:"name,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
