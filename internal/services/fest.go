package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"socio/internal/domain"
)

type festService struct {
	festRepo       domain.FestRepository
	eventRepo      domain.EventRepository
	regRepo        domain.RegistrationRepository
	userRepo       domain.UserRepository
	files          *FileLifecycle
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewFestService returns the fest pipeline. There is no foreign key from
// events to fests, so DeleteFest walks the fest's events and cascades in
// application code.
func NewFestService(festRepo domain.FestRepository,
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	userRepo domain.UserRepository,
	files *FileLifecycle,
	logger *slog.Logger,
	timeout time.Duration,
) domain.FestService {
	return &festService{
		festRepo:       festRepo,
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		userRepo:       userRepo,
		files:          files,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *festService) CreateFest(ctx context.Context, actorEmail string, in *domain.FestInput) (*domain.Fest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := requireOrganiser(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, err
	}

	title := ""
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	slug := domain.Slugify(title)
	if slug == "" {
		return nil, fmt.Errorf("%w: fest title is required and must contain letters or digits", domain.ErrInvalidInput)
	}
	if len(in.EventHeads) > domain.MaxEventHeads {
		return nil, fmt.Errorf("%w: at most %d event heads allowed", domain.ErrInvalidInput, domain.MaxEventHeads)
	}

	now := time.Now()
	fest := &domain.Fest{
		FestID:           slug,
		FestTitle:        title,
		DepartmentAccess: []string{},
		EventHeads:       []string{},
		CreatedBy:        user.Email,
		CreatedAt:        now,
		UpdatedAt:        now,
		UpdatedBy:        user.Email,
	}
	if in.OpeningDate != nil {
		fest.OpeningDate = *in.OpeningDate
	}
	if in.ClosingDate != nil {
		fest.ClosingDate = *in.ClosingDate
	}
	if in.Description != nil {
		fest.Description = *in.Description
	}
	if in.DepartmentAccess != nil {
		fest.DepartmentAccess = in.DepartmentAccess
	}
	if in.Category != nil {
		fest.Category = *in.Category
	}
	if in.ContactEmail != nil {
		fest.ContactEmail = *in.ContactEmail
	}
	if in.ContactPhone != nil {
		fest.ContactPhone = *in.ContactPhone
	}
	if in.EventHeads != nil {
		fest.EventHeads = in.EventHeads
	}
	fest.FestImageURL = in.FestImageURL
	if in.OrganizingDept != nil {
		fest.OrganizingDept = *in.OrganizingDept
	}

	if missing := missingFestFields(fest); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}

	if err := s.festRepo.Create(ctx, fest); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: a fest with this title already exists", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create fest: %w", err)
	}
	return fest, nil
}

func missingFestFields(f *domain.Fest) []string {
	var missing []string
	if f.FestID == "" {
		missing = append(missing, "fest_id")
	}
	if f.FestTitle == "" {
		missing = append(missing, "fest_title")
	}
	if f.OpeningDate.IsZero() {
		missing = append(missing, "opening_date")
	}
	if f.ClosingDate.IsZero() {
		missing = append(missing, "closing_date")
	}
	if f.Description == "" {
		missing = append(missing, "description")
	}
	if len(f.DepartmentAccess) == 0 {
		missing = append(missing, "department_access")
	}
	if f.Category == "" {
		missing = append(missing, "category")
	}
	if f.ContactEmail == "" {
		missing = append(missing, "contact_email")
	}
	if f.ContactPhone == "" {
		missing = append(missing, "contact_phone")
	}
	if f.FestImageURL == nil || *f.FestImageURL == "" {
		missing = append(missing, "fest_image_url")
	}
	if f.OrganizingDept == "" {
		missing = append(missing, "organizing_dept")
	}
	return missing
}

func (s *festService) GetFest(ctx context.Context, festID string) (*domain.Fest, []*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	fest, err := s.festRepo.GetByID(ctx, festID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get fest: %w", err)
	}
	events, err := s.eventRepo.ListByFest(ctx, festID)
	if err != nil {
		return nil, nil, fmt.Errorf("list fest events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return fest, events, nil
}

func (s *festService) ListFests(ctx context.Context, params domain.PaginationParams) ([]*domain.Fest, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	fests, total, err := s.festRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list fests: %w", err)
	}
	if fests == nil {
		fests = []*domain.Fest{}
	}
	return fests, total, nil
}

func (s *festService) UpdateFest(ctx context.Context, festID, actorEmail string, in *domain.FestInput) (*domain.Fest, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := requireOrganiser(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.festRepo.GetByID(ctx, festID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get fest: %w", err)
	}
	if existing.CreatedBy != user.Email {
		return nil, false, domain.ErrForbidden
	}
	if in.EventHeadsSet && len(in.EventHeads) > domain.MaxEventHeads {
		return nil, false, fmt.Errorf("%w: at most %d event heads allowed", domain.ErrInvalidInput, domain.MaxEventHeads)
	}

	changes := make(map[string]any)

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		newSlug := domain.Slugify(title)
		if newSlug == "" {
			return nil, false, fmt.Errorf("%w: fest title must contain letters or digits", domain.ErrInvalidInput)
		}
		if title != existing.FestTitle {
			changes["fest_title"] = title
		}
		if newSlug != existing.FestID {
			changes["fest_id"] = newSlug
		}
	}
	if in.OpeningDate != nil && !in.OpeningDate.Equal(existing.OpeningDate) {
		changes["opening_date"] = *in.OpeningDate
	}
	if in.ClosingDate != nil && !in.ClosingDate.Equal(existing.ClosingDate) {
		changes["closing_date"] = *in.ClosingDate
	}
	if in.Description != nil && *in.Description != existing.Description {
		changes["description"] = *in.Description
	}
	if in.DepartmentAccess != nil && !eqStrings(in.DepartmentAccess, existing.DepartmentAccess) {
		changes["department_access"] = in.DepartmentAccess
	}
	if in.Category != nil && *in.Category != existing.Category {
		changes["category"] = *in.Category
	}
	if in.ContactEmail != nil && *in.ContactEmail != existing.ContactEmail {
		changes["contact_email"] = *in.ContactEmail
	}
	if in.ContactPhone != nil && *in.ContactPhone != existing.ContactPhone {
		changes["contact_phone"] = *in.ContactPhone
	}
	if in.EventHeadsSet && !eqStrings(in.EventHeads, existing.EventHeads) {
		changes["event_heads"] = in.EventHeads
	}
	if in.FestImageSet && !eqStrPtr(in.FestImageURL, existing.FestImageURL) {
		// The fest image is uploaded by the client; when it is replaced the
		// previous object becomes an orphan and is removed best-effort.
		if existing.FestImageURL != nil && *existing.FestImageURL != "" {
			s.files.DeleteByURL(ctx, *existing.FestImageURL)
		}
		changes["fest_image_url"] = strPtrValue(in.FestImageURL)
	}
	if in.OrganizingDept != nil && *in.OrganizingDept != existing.OrganizingDept {
		changes["organizing_dept"] = *in.OrganizingDept
	}

	if len(changes) == 0 {
		return existing, false, nil
	}
	changes["updated_at"] = time.Now()
	changes["updated_by"] = user.Email

	updated, err := s.festRepo.Update(ctx, existing.FestID, changes)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, false, fmt.Errorf("%w: a fest with this title already exists", domain.ErrConflict)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("update fest: %w", err)
	}
	return updated, true, nil
}

// DeleteFest cascades by hand: for each event belonging to the fest its
// stored files are removed best-effort, then its registrations, then the
// event row. Only after every event is gone are the fest's own image and the
// fest row removed, so a failure mid-cascade never leaves a fest pointing at
// deleted events.
func (s *festService) DeleteFest(ctx context.Context, festID, actorEmail string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := requireOrganiser(ctx, s.userRepo, actorEmail)
	if err != nil {
		return err
	}
	fest, err := s.festRepo.GetByID(ctx, festID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get fest: %w", err)
	}
	if fest.CreatedBy != user.Email {
		return domain.ErrForbidden
	}

	return cascadeDeleteFest(ctx, s.festRepo, s.eventRepo, s.regRepo, s.files, s.logger, fest)
}

// cascadeDeleteFest removes a fest's events (files, registrations, row each)
// and then the fest's image and row. Shared with the cleanup sweep.
func cascadeDeleteFest(ctx context.Context,
	festRepo domain.FestRepository,
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	files *FileLifecycle,
	logger *slog.Logger,
	fest *domain.Fest,
) error {
	events, err := eventRepo.ListByFest(ctx, fest.FestID)
	if err != nil {
		return fmt.Errorf("list fest events: %w", err)
	}
	for _, event := range events {
		if err := deleteEventArtifacts(ctx, eventRepo, regRepo, files, logger, event); err != nil {
			// An event deleted concurrently is fine; anything else aborts
			// before the fest row is touched.
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return fmt.Errorf("cascade delete event %s: %w", event.EventID, err)
		}
	}

	if fest.FestImageURL != nil {
		files.DeleteByURLs(ctx, fest.FestImageURL)
	}
	if err := festRepo.Delete(ctx, fest.FestID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete fest: %w", err)
	}
	return nil
}
