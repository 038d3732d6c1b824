package domain

import (
	"context"
	"time"
)

// MaxEventHeads caps the number of event head emails per fest.
const MaxEventHeads = 5

// Fest represents a multi-event campus fest. FestID is a slug derived from
// the title, same rule as events. Events reference a fest through their
// `fest` field; the link is not enforced by the database, so deleting a fest
// cascades over its events in application code.
// swagger:model Fest
type Fest struct {
	FestID           string    `json:"fest_id"`
	FestTitle        string    `json:"fest_title"`
	OpeningDate      time.Time `json:"opening_date"`
	ClosingDate      time.Time `json:"closing_date"`
	Description      string    `json:"description"`
	DepartmentAccess []string  `json:"department_access"`
	Category         string    `json:"category"`
	ContactEmail     string    `json:"contact_email"`
	ContactPhone     string    `json:"contact_phone"`
	EventHeads       []string  `json:"event_heads"`
	FestImageURL     *string   `json:"fest_image_url"`
	OrganizingDept   string    `json:"organizing_dept"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	UpdatedBy        string    `json:"updated_by"`
}

// FestInput carries the decoded fields of a fest create or update request.
// Nil pointers mean the field was absent from the request.
type FestInput struct {
	Title            *string
	OpeningDate      *time.Time
	ClosingDate      *time.Time
	Description      *string
	DepartmentAccess []string
	Category         *string
	ContactEmail     *string
	ContactPhone     *string
	EventHeads       []string
	EventHeadsSet    bool
	FestImageURL     *string
	FestImageSet     bool
	OrganizingDept   *string
}

// FestRepository defines the interface for fest storage.
type FestRepository interface {
	Create(ctx context.Context, fest *Fest) error
	GetByID(ctx context.Context, festID string) (*Fest, error)
	List(ctx context.Context, params PaginationParams) ([]*Fest, int, error)
	Update(ctx context.Context, festID string, fields map[string]any) (*Fest, error)
	Delete(ctx context.Context, festID string) error
	// ListExpired returns fests whose closing date is before the given instant.
	ListExpired(ctx context.Context, before time.Time) ([]*Fest, error)
}

// FestService defines the business logic for fest mutations, including the
// cascading delete over the fest's events.
type FestService interface {
	CreateFest(ctx context.Context, actorEmail string, in *FestInput) (*Fest, error)
	GetFest(ctx context.Context, festID string) (*Fest, []*Event, error)
	ListFests(ctx context.Context, params PaginationParams) ([]*Fest, int, error)
	UpdateFest(ctx context.Context, festID, actorEmail string, in *FestInput) (*Fest, bool, error)
	DeleteFest(ctx context.Context, festID, actorEmail string) error
}
