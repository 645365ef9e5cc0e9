package entity

import "time"

// ContactStatus contact form stub status
type ContactStatus string

const (
	ContactIdle       ContactStatus = "idle"
	ContactSubmitting ContactStatus = "submitting"
	ContactSuccess    ContactStatus = "success"
)

// ContactFields what the visitor typed into the form
type ContactFields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactForm form fields plus its status
type ContactForm struct {
	ID        string        `json:"id"`
	Fields    ContactFields `json:"fields"`
	Status    ContactStatus `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}
