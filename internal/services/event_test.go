package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"socio/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type fakeEventRepo struct {
	events      map[string]*domain.Event
	createErr   error
	updateErr   error
	deleteErr   error
	lastUpdate  map[string]any
	updateCalls int
	deleted     []string
	expired     []*domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*domain.Event)}
}

func (f *fakeEventRepo) Create(ctx context.Context, event *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.events[event.EventID]; ok {
		return domain.ErrConflict
	}
	f.events[event.EventID] = event
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, eventID string) (*domain.Event, error) {
	e, ok := f.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var out []*domain.Event
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) ListByFest(ctx context.Context, festID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.events {
		if e.Fest != nil && *e.Fest == festID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, eventID string, fields map[string]any) (*domain.Event, error) {
	f.updateCalls++
	f.lastUpdate = fields
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	e, ok := f.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	updated := *e
	for k, v := range fields {
		switch k {
		case "title":
			updated.Title = v.(string)
		case "event_id":
			updated.EventID = v.(string)
		case "registration_deadline":
			updated.RegistrationDeadline = v.(time.Time)
		case "event_image_url":
			if v == nil {
				updated.EventImageURL = nil
			} else {
				updated.EventImageURL = ptr(v.(string))
			}
		case "venue":
			updated.Venue = v.(string)
		}
	}
	if updated.EventID != eventID {
		delete(f.events, eventID)
	}
	f.events[updated.EventID] = &updated
	return &updated, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.events[eventID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, eventID)
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *fakeEventRepo) ListExpired(ctx context.Context, before time.Time) ([]*domain.Event, error) {
	return f.expired, nil
}

type fakeUserRepo struct {
	users      map[string]*domain.User
	hashes     map[string]string
	salts      map[string]string
	createErr  error
	getCredErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*domain.User),
		hashes: make(map[string]string),
		salts:  make(map[string]string),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User, passwordHash, salt string) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[user.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.users[user.Email] = user
	f.hashes[user.Email] = passwordHash
	f.salts[user.Email] = salt
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetCredentials(ctx context.Context, email string) (*domain.User, string, string, error) {
	if f.getCredErr != nil {
		return nil, "", "", f.getCredErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, "", "", domain.ErrUserNotFound
	}
	return u, f.hashes[email], f.salts[email], nil
}

type fakeRegistrationRepo struct {
	regs        []*domain.Registration
	createErr   error
	deleteErr   error
	deletedFor  []string
	deleteCount int64
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.regs {
		if r.EventID == reg.EventID && r.RegisterNumber == reg.RegisterNumber {
			return domain.ErrConflict
		}
	}
	f.regs = append(f.regs, reg)
	return nil
}

func (f *fakeRegistrationRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	var out []*domain.Registration
	for _, r := range f.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) DeleteByEventID(ctx context.Context, eventID string) (int64, error) {
	f.deletedFor = append(f.deletedFor, eventID)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	kept := f.regs[:0]
	var n int64
	for _, r := range f.regs {
		if r.EventID == eventID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.regs = kept
	f.deleteCount += n
	return n, nil
}

const organiserEmail = "head@college.edu"

func organiserUser() *domain.User {
	return &domain.User{
		ID:          "u-1",
		Email:       organiserEmail,
		Name:        "Organiser",
		IsOrganiser: true,
	}
}

type eventFixture struct {
	svc       domain.EventService
	eventRepo *fakeEventRepo
	userRepo  *fakeUserRepo
	regRepo   *fakeRegistrationRepo
	store     *fakeStorage
	files     *FileLifecycle
}

func newEventFixture() *eventFixture {
	store := newFakeStorage()
	files := NewFileLifecycle(store, store.bucket, discardLogger)
	eventRepo := newFakeEventRepo()
	userRepo := newFakeUserRepo()
	userRepo.users[organiserEmail] = organiserUser()
	regRepo := &fakeRegistrationRepo{}
	return &eventFixture{
		svc:       NewEventService(eventRepo, regRepo, userRepo, files, discardLogger, 5*time.Second),
		eventRepo: eventRepo,
		userRepo:  userRepo,
		regRepo:   regRepo,
		store:     store,
		files:     files,
	}
}

func validCreateInput() *domain.EventInput {
	return &domain.EventInput{
		Title:                ptr("AI Workshop 2026"),
		Description:          ptr("Hands-on sessions"),
		EventDate:            ptr(time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)),
		EventTime:            ptr("10:00 AM"),
		Category:             ptr("technical"),
		OrganizingDept:       ptr("CSE"),
		DepartmentAccess:     []string{"CSE", "ECE"},
		RegistrationDeadline: ptr(time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)),
		Venue:                ptr("Main Auditorium"),
		OrganizerEmail:       ptr(organiserEmail),
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	f := newEventFixture()
	in := validCreateInput()
	in.Image = &domain.FileUpload{Name: "poster.png", ContentType: "image/png", Data: []byte("img")}
	in.PDF = &domain.FileUpload{Name: "rules.pdf", ContentType: "application/pdf", Data: []byte("pdf")}

	event, err := f.svc.CreateEvent(context.Background(), organiserEmail, in)
	require.NoError(t, err)

	assert.Equal(t, "ai-workshop-2026", event.EventID)
	assert.Equal(t, "AI Workshop 2026", event.Title)
	assert.Equal(t, organiserEmail, event.CreatedBy)
	require.NotNil(t, event.EventImageURL)
	assert.Contains(t, *event.EventImageURL, "events/ai-workshop-2026/image-")
	require.NotNil(t, event.PDFURL)
	assert.Nil(t, event.BannerURL)
	assert.Len(t, f.store.objects, 2)
	assert.Contains(t, f.eventRepo.events, "ai-workshop-2026")
}

func TestEventService_CreateEventAuthorization(t *testing.T) {
	f := newEventFixture()
	f.userRepo.users["student@college.edu"] = &domain.User{Email: "student@college.edu"}

	_, err := f.svc.CreateEvent(context.Background(), "student@college.edu", validCreateInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateEvent(context.Background(), "ghost@college.edu", validCreateInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestEventService_CreateEventBadTitle(t *testing.T) {
	f := newEventFixture()
	in := validCreateInput()
	in.Title = ptr("!!! ???")
	in.Image = &domain.FileUpload{Name: "a.png", Data: []byte("x")}

	_, err := f.svc.CreateEvent(context.Background(), organiserEmail, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.store.uploads, "nothing may be uploaded for an invalid title")
}

func TestEventService_CreateEventMissingFieldsRollsBackUploads(t *testing.T) {
	f := newEventFixture()
	in := validCreateInput()
	in.Venue = nil
	in.Category = nil
	in.Banner = &domain.FileUpload{Name: "b.jpg", Data: []byte("x")}

	_, err := f.svc.CreateEvent(context.Background(), organiserEmail, in)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "venue")
	assert.Contains(t, err.Error(), "category")
	assert.Empty(t, f.store.objects, "uploads must be compensated when validation fails")
}

func TestEventService_CreateEventRepoFailureRollsBackUploads(t *testing.T) {
	f := newEventFixture()
	f.eventRepo.createErr = errors.New("db down")
	in := validCreateInput()
	in.Image = &domain.FileUpload{Name: "a.png", Data: []byte("x")}

	_, err := f.svc.CreateEvent(context.Background(), organiserEmail, in)
	require.Error(t, err)
	assert.Empty(t, f.store.objects)
}

func TestEventService_CreateEventSlugConflict(t *testing.T) {
	f := newEventFixture()
	_, err := f.svc.CreateEvent(context.Background(), organiserEmail, validCreateInput())
	require.NoError(t, err)

	_, err = f.svc.CreateEvent(context.Background(), organiserEmail, validCreateInput())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func seedEvent(f *eventFixture) *domain.Event {
	event := &domain.Event{
		EventID:              "robo-race",
		Title:                "Robo Race",
		EventDate:            time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Category:             "technical",
		OrganizingDept:       "MECH",
		DepartmentAccess:     []string{"MECH"},
		RegistrationDeadline: time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC),
		Venue:                "Ground",
		OrganizerEmail:       organiserEmail,
		CreatedBy:            organiserEmail,
	}
	f.eventRepo.events[event.EventID] = event
	return event
}

func TestEventService_UpdateEventNoChanges(t *testing.T) {
	f := newEventFixture()
	existing := seedEvent(f)

	// Same values as stored plus absent fields: nothing to write.
	updated, wrote, err := f.svc.UpdateEvent(context.Background(), "robo-race", organiserEmail, &domain.EventInput{
		Title: ptr("Robo Race"),
		Venue: ptr("Ground"),
	})
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Same(t, existing, updated)
	assert.Zero(t, f.eventRepo.updateCalls)
	assert.Empty(t, f.store.uploads)
	assert.Empty(t, f.store.removes)
}

func TestEventService_UpdateEventTitleMovesSlug(t *testing.T) {
	f := newEventFixture()
	seedEvent(f)

	updated, wrote, err := f.svc.UpdateEvent(context.Background(), "robo-race", organiserEmail, &domain.EventInput{
		Title: ptr("Robo Race Finals"),
	})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, "robo-race-finals", updated.EventID)
	assert.Equal(t, "Robo Race Finals", f.eventRepo.lastUpdate["title"])
	assert.Equal(t, "robo-race-finals", f.eventRepo.lastUpdate["event_id"])
	assert.Contains(t, f.eventRepo.lastUpdate, "updated_at")
	assert.Equal(t, organiserEmail, f.eventRepo.lastUpdate["updated_by"])
}

func TestEventService_UpdateEventReplacesFile(t *testing.T) {
	f := newEventFixture()
	event := seedEvent(f)
	f.store.objects["events/robo-race/image-old.png"] = []byte("old")
	event.EventImageURL = ptr("https://cdn.test/socio-uploads/events/robo-race/image-old.png")

	updated, wrote, err := f.svc.UpdateEvent(context.Background(), "robo-race", organiserEmail, &domain.EventInput{
		Image: &domain.FileUpload{Name: "new.png", ContentType: "image/png", Data: []byte("new")},
	})
	require.NoError(t, err)
	assert.True(t, wrote)
	require.NotNil(t, updated.EventImageURL)
	assert.Contains(t, *updated.EventImageURL, "events/robo-race/image-")
	assert.NotContains(t, f.store.objects, "events/robo-race/image-old.png")
	newURL, ok := f.eventRepo.lastUpdate["event_image_url"].(string)
	require.True(t, ok)
	assert.Contains(t, newURL, "events/robo-race/image-")
}

func TestEventService_UpdateEventRemoveFile(t *testing.T) {
	f := newEventFixture()
	event := seedEvent(f)
	f.store.objects["events/robo-race/pdf-old.pdf"] = []byte("old")
	event.PDFURL = ptr("https://cdn.test/socio-uploads/events/robo-race/pdf-old.pdf")

	_, wrote, err := f.svc.UpdateEvent(context.Background(), "robo-race", organiserEmail, &domain.EventInput{
		RemovePDF: true,
	})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.NotContains(t, f.store.objects, "events/robo-race/pdf-old.pdf")
	v, ok := f.eventRepo.lastUpdate["pdf_url"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestEventService_UpdateEventDBFailureRollsBackNewUploads(t *testing.T) {
	f := newEventFixture()
	seedEvent(f)
	f.eventRepo.updateErr = errors.New("db down")

	_, _, err := f.svc.UpdateEvent(context.Background(), "robo-race", organiserEmail, &domain.EventInput{
		Banner: &domain.FileUpload{Name: "b.jpg", Data: []byte("x")},
	})
	require.Error(t, err)
	assert.Empty(t, f.store.objects, "the fresh upload must be removed after the write fails")
}

func TestEventService_UpdateEventOwnershipAndExistence(t *testing.T) {
	f := newEventFixture()
	seedEvent(f)
	f.userRepo.users["other@college.edu"] = &domain.User{Email: "other@college.edu", IsOrganiser: true}

	_, _, err := f.svc.UpdateEvent(context.Background(), "robo-race", "other@college.edu", &domain.EventInput{Venue: ptr("Elsewhere")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = f.svc.UpdateEvent(context.Background(), "no-such-event", organiserEmail, &domain.EventInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_DeleteEvent(t *testing.T) {
	f := newEventFixture()
	event := seedEvent(f)
	f.store.objects["events/robo-race/image-a.png"] = []byte("a")
	event.EventImageURL = ptr("https://cdn.test/socio-uploads/events/robo-race/image-a.png")
	f.regRepo.regs = []*domain.Registration{
		{EventID: "robo-race", RegisterNumber: "21CS001", Email: "a@college.edu"},
		{EventID: "other", RegisterNumber: "21CS002", Email: "b@college.edu"},
	}

	err := f.svc.DeleteEvent(context.Background(), "robo-race", organiserEmail)
	require.NoError(t, err)
	assert.NotContains(t, f.eventRepo.events, "robo-race")
	assert.Empty(t, f.store.objects)
	require.Len(t, f.regRepo.regs, 1)
	assert.Equal(t, "other", f.regRepo.regs[0].EventID)
}

func TestEventService_DeleteEventRegistrationFailureIsSwallowed(t *testing.T) {
	f := newEventFixture()
	seedEvent(f)
	f.regRepo.deleteErr = errors.New("db down")

	err := f.svc.DeleteEvent(context.Background(), "robo-race", organiserEmail)
	require.NoError(t, err, "the event row is gone; registration cleanup is best-effort")
	assert.NotContains(t, f.eventRepo.events, "robo-race")
}

func TestEventService_CloseRegistration(t *testing.T) {
	f := newEventFixture()
	seedEvent(f)

	before := time.Now()
	updated, err := f.svc.CloseRegistration(context.Background(), "robo-race", organiserEmail)
	require.NoError(t, err)

	deadline, ok := f.eventRepo.lastUpdate["registration_deadline"].(time.Time)
	require.True(t, ok)
	assert.True(t, deadline.Before(before), "deadline must be backdated")
	assert.True(t, updated.RegistrationDeadline.Before(time.Now()))
}
