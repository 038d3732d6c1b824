package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// RegistrationEmailData holds data for the registration confirmation email.
type RegistrationEmailData struct {
	Email          string
	Name           string
	EventTitle     string
	EventID        string
	Venue          string
	RegisterNumber string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRegistrationConfirmation(ctx context.Context, data *RegistrationEmailData) error
}
