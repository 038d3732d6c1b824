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

type eventService struct {
	eventRepo      domain.EventRepository
	regRepo        domain.RegistrationRepository
	userRepo       domain.UserRepository
	files          *FileLifecycle
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService returns the event mutation pipeline: authorization, field
// validation, payload diffing, file lifecycle calls, and the database write,
// with compensation of fresh uploads when the write fails.
func NewEventService(eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	userRepo domain.UserRepository,
	files *FileLifecycle,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		userRepo:       userRepo,
		files:          files,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// requireOrganiser resolves the acting user and checks the organiser flag.
// A missing user row and a missing flag both map to ErrForbidden: the token
// was valid, the role was not.
func requireOrganiser(ctx context.Context, userRepo domain.UserRepository, email string) (*domain.User, error) {
	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsOrganiser {
		return nil, domain.ErrForbidden
	}
	return user, nil
}

func (s *eventService) CreateEvent(ctx context.Context, actorEmail string, in *domain.EventInput) (*domain.Event, error) {
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
		return nil, fmt.Errorf("%w: title is required and must contain letters or digits", domain.ErrInvalidInput)
	}

	uploads, err := s.files.UploadSet(ctx, "events/"+slug, map[string]*domain.FileUpload{
		"image":  in.Image,
		"banner": in.Banner,
		"pdf":    in.PDF,
	})
	if err != nil {
		return nil, fmt.Errorf("upload event files: %w", err)
	}
	tracked := make([]UploadedFile, 0, len(uploads))
	for _, up := range uploads {
		tracked = append(tracked, up)
	}

	now := time.Now()
	event := &domain.Event{
		EventID:          slug,
		Title:            title,
		DepartmentAccess: []string{},
		Schedule:         []domain.ScheduleItem{},
		Rules:            []string{},
		Prizes:           []string{},
		CreatedBy:        user.Email,
		CreatedAt:        now,
		UpdatedAt:        now,
		UpdatedBy:        user.Email,
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.EventDate != nil {
		event.EventDate = *in.EventDate
	}
	if in.EndDate != nil {
		event.EndDate = in.EndDate
	}
	if in.EventTime != nil {
		event.EventTime = *in.EventTime
	}
	if in.Category != nil {
		event.Category = *in.Category
	}
	if in.OrganizingDept != nil {
		event.OrganizingDept = *in.OrganizingDept
	}
	if in.DepartmentAccess != nil {
		event.DepartmentAccess = in.DepartmentAccess
	}
	if in.Fest != nil {
		event.Fest = in.Fest
	}
	if in.RegistrationDeadline != nil {
		event.RegistrationDeadline = *in.RegistrationDeadline
	}
	if in.Venue != nil {
		event.Venue = *in.Venue
	}
	event.RegistrationFee = in.RegistrationFee
	event.ParticipantsPerTeam = in.ParticipantsPerTeam
	if in.OrganizerEmail != nil {
		event.OrganizerEmail = *in.OrganizerEmail
	}
	event.OrganizerPhone = in.OrganizerPhone
	event.WhatsappInviteLink = in.WhatsappInviteLink
	if in.ClaimsApplicable != nil {
		event.ClaimsApplicable = *in.ClaimsApplicable
	}
	if in.Schedule != nil {
		event.Schedule = in.Schedule
	}
	if in.Rules != nil {
		event.Rules = in.Rules
	}
	if in.Prizes != nil {
		event.Prizes = in.Prizes
	}
	if up, ok := uploads["image"]; ok {
		event.EventImageURL = &up.URL
	}
	if up, ok := uploads["banner"]; ok {
		event.BannerURL = &up.URL
	}
	if up, ok := uploads["pdf"]; ok {
		event.PDFURL = &up.URL
	}

	if missing := missingEventFields(event); len(missing) > 0 {
		s.files.Rollback(ctx, tracked)
		return nil, fmt.Errorf("%w: missing required fields: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.files.Rollback(ctx, tracked)
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: an event with this title already exists", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// missingEventFields returns the names of required create fields that are
// empty after coercion.
func missingEventFields(e *domain.Event) []string {
	var missing []string
	if e.EventID == "" {
		missing = append(missing, "event_id")
	}
	if e.Title == "" {
		missing = append(missing, "title")
	}
	if e.EventDate.IsZero() {
		missing = append(missing, "event_date")
	}
	if e.Category == "" {
		missing = append(missing, "category")
	}
	if e.OrganizingDept == "" {
		missing = append(missing, "organizing_dept")
	}
	if len(e.DepartmentAccess) == 0 {
		missing = append(missing, "department_access")
	}
	if e.RegistrationDeadline.IsZero() {
		missing = append(missing, "registration_deadline")
	}
	if e.Venue == "" {
		missing = append(missing, "venue")
	}
	if e.OrganizerEmail == "" {
		missing = append(missing, "organizer_email")
	}
	return missing
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, actorEmail string, in *domain.EventInput) (*domain.Event, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := requireOrganiser(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get event: %w", err)
	}
	if existing.CreatedBy != user.Email {
		return nil, false, domain.ErrForbidden
	}

	changes := make(map[string]any)

	// The slug follows the title. Validate before touching storage so a bad
	// title never leaves stray uploads behind.
	slug := existing.EventID
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		newSlug := domain.Slugify(title)
		if newSlug == "" {
			return nil, false, fmt.Errorf("%w: title must contain letters or digits", domain.ErrInvalidInput)
		}
		if title != existing.Title {
			changes["title"] = title
		}
		if newSlug != existing.EventID {
			changes["event_id"] = newSlug
			slug = newSlug
		}
	}

	var newUploads []UploadedFile
	fileSlots := []struct {
		file    *domain.FileUpload
		remove  bool
		current *string
		column  string
		slot    string
	}{
		{in.Image, in.RemoveImage, existing.EventImageURL, "event_image_url", "image"},
		{in.Banner, in.RemoveBanner, existing.BannerURL, "banner_url", "banner"},
		{in.PDF, in.RemovePDF, existing.PDFURL, "pdf_url", "pdf"},
	}
	for _, fs := range fileSlots {
		switch {
		case fs.file != nil:
			up, err := s.files.Upload(ctx, "events/"+slug, fs.slot, fs.file)
			if err != nil {
				s.files.Rollback(ctx, newUploads)
				return nil, false, fmt.Errorf("upload event files: %w", err)
			}
			newUploads = append(newUploads, *up)
			// The old object is removed only after the replacement is
			// safely stored; failure to remove it is not the caller's problem.
			if fs.current != nil && *fs.current != "" {
				s.files.DeleteByURL(ctx, *fs.current)
			}
			changes[fs.column] = up.URL
		case fs.remove && fs.current != nil && *fs.current != "":
			s.files.DeleteByURL(ctx, *fs.current)
			changes[fs.column] = nil
		}
	}

	s.diffEventScalars(existing, in, changes)

	if len(changes) == 0 {
		return existing, false, nil
	}
	changes["updated_at"] = time.Now()
	changes["updated_by"] = user.Email

	updated, err := s.eventRepo.Update(ctx, existing.EventID, changes)
	if err != nil {
		s.files.Rollback(ctx, newUploads)
		if errors.Is(err, domain.ErrConflict) {
			return nil, false, fmt.Errorf("%w: an event with this title already exists", domain.ErrConflict)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("update event: %w", err)
	}
	return updated, true, nil
}

// diffEventScalars adds a column to changes for every submitted field whose
// coerced value differs from the stored one. Absent fields never clobber.
func (s *eventService) diffEventScalars(existing *domain.Event, in *domain.EventInput, changes map[string]any) {
	if in.Description != nil && *in.Description != existing.Description {
		changes["description"] = *in.Description
	}
	if in.EventDate != nil && !in.EventDate.Equal(existing.EventDate) {
		changes["event_date"] = *in.EventDate
	}
	if in.EndDateSet && !eqTimePtr(in.EndDate, existing.EndDate) {
		changes["end_date"] = timePtrValue(in.EndDate)
	}
	if in.EventTime != nil && *in.EventTime != existing.EventTime {
		changes["event_time"] = *in.EventTime
	}
	if in.Category != nil && *in.Category != existing.Category {
		changes["category"] = *in.Category
	}
	if in.OrganizingDept != nil && *in.OrganizingDept != existing.OrganizingDept {
		changes["organizing_dept"] = *in.OrganizingDept
	}
	if in.DepartmentAccess != nil && !eqStrings(in.DepartmentAccess, existing.DepartmentAccess) {
		changes["department_access"] = in.DepartmentAccess
	}
	if in.FestSet && !eqStrPtr(in.Fest, existing.Fest) {
		changes["fest"] = strPtrValue(in.Fest)
	}
	if in.RegistrationDeadline != nil && !in.RegistrationDeadline.Equal(existing.RegistrationDeadline) {
		changes["registration_deadline"] = *in.RegistrationDeadline
	}
	if in.Venue != nil && *in.Venue != existing.Venue {
		changes["venue"] = *in.Venue
	}
	if in.RegistrationFeeSet && !eqFloatPtr(in.RegistrationFee, existing.RegistrationFee) {
		changes["registration_fee"] = floatPtrValue(in.RegistrationFee)
	}
	if in.ParticipantsSet && !eqIntPtr(in.ParticipantsPerTeam, existing.ParticipantsPerTeam) {
		changes["participants_per_team"] = intPtrValue(in.ParticipantsPerTeam)
	}
	if in.OrganizerEmail != nil && *in.OrganizerEmail != existing.OrganizerEmail {
		changes["organizer_email"] = *in.OrganizerEmail
	}
	if in.OrganizerPhoneSet && !eqStrPtr(in.OrganizerPhone, existing.OrganizerPhone) {
		changes["organizer_phone"] = strPtrValue(in.OrganizerPhone)
	}
	if in.WhatsappSet && !eqStrPtr(in.WhatsappInviteLink, existing.WhatsappInviteLink) {
		changes["whatsapp_invite_link"] = strPtrValue(in.WhatsappInviteLink)
	}
	if in.ClaimsApplicable != nil && *in.ClaimsApplicable != existing.ClaimsApplicable {
		changes["claims_applicable"] = *in.ClaimsApplicable
	}
	if in.ScheduleSet && !eqSchedule(in.Schedule, existing.Schedule) {
		changes["schedule"] = in.Schedule
	}
	if in.RulesSet && !eqStrings(in.Rules, existing.Rules) {
		changes["rules"] = in.Rules
	}
	if in.PrizesSet && !eqStrings(in.Prizes, existing.Prizes) {
		changes["prizes"] = in.Prizes
	}
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, actorEmail string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := requireOrganiser(ctx, s.userRepo, actorEmail)
	if err != nil {
		return err
	}
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if existing.CreatedBy != user.Email {
		return domain.ErrForbidden
	}

	return deleteEventArtifacts(ctx, s.eventRepo, s.regRepo, s.files, s.logger, existing)
}

// deleteEventArtifacts removes an event's stored files (best-effort), its
// row, and its registrations (best-effort: the row is already gone, so a
// failure here is logged rather than surfaced). Shared by the user-initiated
// delete, the fest cascade, and the cleanup sweep.
func deleteEventArtifacts(ctx context.Context,
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	files *FileLifecycle,
	logger *slog.Logger,
	event *domain.Event,
) error {
	files.DeleteByURLs(ctx, event.EventImageURL, event.BannerURL, event.PDFURL)

	if err := eventRepo.Delete(ctx, event.EventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	if _, err := regRepo.DeleteByEventID(ctx, event.EventID); err != nil {
		logger.Warn("failed to delete registrations for removed event", "event_id", event.EventID, "err", err)
	}
	return nil
}

// CloseRegistration backdates the registration deadline to one second in the
// past instead of flagging the event, so every deadline-based eligibility
// check sees registrations as closed without a new status field.
func (s *eventService) CloseRegistration(ctx context.Context, eventID, actorEmail string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := requireOrganiser(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, err
	}
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if existing.CreatedBy != user.Email {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	updated, err := s.eventRepo.Update(ctx, eventID, map[string]any{
		"registration_deadline": now.Add(-time.Second),
		"updated_at":            now,
		"updated_by":            user.Email,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("close registration: %w", err)
	}
	return updated, nil
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func eqStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func eqSchedule(a, b []domain.ScheduleItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// *PtrValue helpers convert a nil pointer to an untyped nil so the SQL layer
// writes NULL instead of a typed nil pointer.
func strPtrValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtrValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtrValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func timePtrValue(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
