package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across services and controllers.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// ScheduleItem is one entry in an event's schedule.
type ScheduleItem struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
}

// Event represents a campus event. EventID is a slug derived from the title;
// when the title changes on update the slug changes with it.
// swagger:model Event
type Event struct {
	EventID              string         `json:"event_id"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	EventDate            time.Time      `json:"event_date"`
	EndDate              *time.Time     `json:"end_date"`
	EventTime            string         `json:"event_time"`
	Category             string         `json:"category"`
	OrganizingDept       string         `json:"organizing_dept"`
	DepartmentAccess     []string       `json:"department_access"`
	Fest                 *string        `json:"fest"`
	RegistrationDeadline time.Time      `json:"registration_deadline"`
	Venue                string         `json:"venue"`
	RegistrationFee      *float64       `json:"registration_fee"`
	ParticipantsPerTeam  *int           `json:"participants_per_team"`
	OrganizerEmail       string         `json:"organizer_email"`
	OrganizerPhone       *string        `json:"organizer_phone"`
	WhatsappInviteLink   *string        `json:"whatsapp_invite_link"`
	ClaimsApplicable     bool           `json:"claims_applicable"`
	Schedule             []ScheduleItem `json:"schedule"`
	Rules                []string       `json:"rules"`
	Prizes               []string       `json:"prizes"`
	EventImageURL        *string        `json:"event_image_url"`
	BannerURL            *string        `json:"banner_url"`
	PDFURL               *string        `json:"pdf_url"`
	TotalParticipants    int            `json:"total_participants"`
	CreatedBy            string         `json:"created_by"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	UpdatedBy            string         `json:"updated_by"`
}

// EventInput carries the decoded fields of a create or update request.
// Pointer fields are nil when the client did not send the field at all.
// The *Set flags distinguish "field sent with an empty value" (clear it)
// from "field absent" (leave it alone) for nullable columns.
type EventInput struct {
	Title                *string
	Description          *string
	EventDate            *time.Time
	EndDate              *time.Time
	EndDateSet           bool
	EventTime            *string
	Category             *string
	OrganizingDept       *string
	DepartmentAccess     []string
	Fest                 *string
	FestSet              bool
	RegistrationDeadline *time.Time
	Venue                *string
	RegistrationFee      *float64
	RegistrationFeeSet   bool
	ParticipantsPerTeam  *int
	ParticipantsSet      bool
	OrganizerEmail       *string
	OrganizerPhone       *string
	OrganizerPhoneSet    bool
	WhatsappInviteLink   *string
	WhatsappSet          bool
	ClaimsApplicable     *bool
	Schedule             []ScheduleItem
	ScheduleSet          bool
	Rules                []string
	RulesSet             bool
	Prizes               []string
	PrizesSet            bool

	Image        *FileUpload
	Banner       *FileUpload
	PDF          *FileUpload
	RemoveImage  bool
	RemoveBanner bool
	RemovePDF    bool
}

// EventFilter narrows event listings.
type EventFilter struct {
	Category string
	Dept     string
	Fest     string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, eventID string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	ListByFest(ctx context.Context, festID string) ([]*Event, error)
	// Update applies only the given column -> value pairs and returns the
	// updated row. An empty fields map is a caller bug; callers skip the
	// write entirely when nothing changed.
	Update(ctx context.Context, eventID string, fields map[string]any) (*Event, error)
	Delete(ctx context.Context, eventID string) error
	// ListExpired returns standalone events (no fest) whose end date, or event
	// date when no end date is set, is before the given instant.
	ListExpired(ctx context.Context, before time.Time) ([]*Event, error)
}

// EventService defines the business logic for event mutations.
type EventService interface {
	CreateEvent(ctx context.Context, actorEmail string, in *EventInput) (*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	// UpdateEvent returns the resulting event and whether any write happened.
	UpdateEvent(ctx context.Context, eventID, actorEmail string, in *EventInput) (*Event, bool, error)
	DeleteEvent(ctx context.Context, eventID, actorEmail string) error
	CloseRegistration(ctx context.Context, eventID, actorEmail string) (*Event, error)
}
