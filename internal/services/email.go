package services

import (
	"context"
	"fmt"
	"log/slog"

	"socio/internal/domain"
)

type emailService struct {
	mailer domain.Mailer
	logger *slog.Logger
}

// NewEmailService returns the domain-level email composer.
func NewEmailService(mailer domain.Mailer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, logger: logger}
}

func (s *emailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	subject := fmt.Sprintf("Registration confirmed: %s", data.EventTitle)
	html := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Your registration for <strong>%s</strong> is confirmed.</p>
<ul>
<li>Venue: %s</li>
<li>Register number: %s</li>
</ul>
<p>See you there!</p>`,
		data.Name, data.EventTitle, data.Venue, data.RegisterNumber,
	)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour registration for %s is confirmed.\nVenue: %s\nRegister number: %s\n\nSee you there!",
		data.Name, data.EventTitle, data.Venue, data.RegisterNumber,
	)

	if err := s.mailer.Send(data.Email, subject, html, text); err != nil {
		return fmt.Errorf("send registration confirmation: %w", err)
	}
	s.logger.Info("registration confirmation sent", "event_id", data.EventID, "email", data.Email)
	return nil
}
