package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDeadlinePassed is returned when registering after the event's deadline.
var ErrDeadlinePassed = errors.New("registration deadline has passed")

// Registration links a user's register number to an event. The store enforces
// uniqueness per (event_id, register_number); a duplicate surfaces as ErrConflict.
// swagger:model Registration
type Registration struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	RegisterNumber string    `json:"register_number"`
	Email          string    `json:"email"`
	TeamName       *string   `json:"teamname"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationRepository defines the interface for registration storage.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *Registration) error
	ListByEventID(ctx context.Context, eventID string) ([]*Registration, error)
	// DeleteByEventID removes all registrations for an event and returns how
	// many rows were removed. Zero rows is not an error.
	DeleteByEventID(ctx context.Context, eventID string) (int64, error)
}

// RegistrationService defines the business logic for event registrations.
type RegistrationService interface {
	Register(ctx context.Context, eventID, actorEmail string, teamName *string) (*Registration, error)
	ListRegistrations(ctx context.Context, eventID, actorEmail string) ([]*Registration, error)
}
