package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socio/internal/domain"
)

type registrationService struct {
	regRepo        domain.RegistrationRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewRegistrationService returns the registration flow: deadline gate,
// duplicate detection, and a best-effort confirmation email.
func NewRegistrationService(regRepo domain.RegistrationRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		regRepo:        regRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *registrationService) Register(ctx context.Context, eventID, actorEmail string, teamName *string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, actorEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if time.Now().After(event.RegistrationDeadline) {
		return nil, domain.ErrDeadlinePassed
	}

	reg := &domain.Registration{
		EventID:        event.EventID,
		RegisterNumber: user.RegisterNumber,
		Email:          user.Email,
		TeamName:       teamName,
		CreatedAt:      time.Now(),
	}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: already registered for this event", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}

	// Registration succeeded; a mail failure must not undo it.
	if err := s.emailService.SendRegistrationConfirmation(ctx, &domain.RegistrationEmailData{
		Email:          user.Email,
		Name:           user.Name,
		EventTitle:     event.Title,
		EventID:        event.EventID,
		Venue:          event.Venue,
		RegisterNumber: user.RegisterNumber,
	}); err != nil {
		s.logger.Warn("failed to send registration confirmation", "event_id", event.EventID, "email", user.Email, "err", err)
	}
	return reg, nil
}

// ListRegistrations is restricted to the event's creator.
func (s *registrationService) ListRegistrations(ctx context.Context, eventID, actorEmail string) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := requireOrganiser(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatedBy != user.Email {
		return nil, domain.ErrForbidden
	}

	regs, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}
