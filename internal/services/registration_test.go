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

type fakeEmailService struct {
	sent    []*domain.RegistrationEmailData
	sendErr error
}

func (f *fakeEmailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}

type registrationFixture struct {
	svc       domain.RegistrationService
	regRepo   *fakeRegistrationRepo
	eventRepo *fakeEventRepo
	userRepo  *fakeUserRepo
	emails    *fakeEmailService
}

const studentEmail = "student@college.edu"

func newRegistrationFixture() *registrationFixture {
	regRepo := &fakeRegistrationRepo{}
	eventRepo := newFakeEventRepo()
	userRepo := newFakeUserRepo()
	userRepo.users[organiserEmail] = organiserUser()
	userRepo.users[studentEmail] = &domain.User{
		ID:             "u-2",
		Email:          studentEmail,
		Name:           "Student",
		RegisterNumber: "21CS042",
	}
	emails := &fakeEmailService{}
	return &registrationFixture{
		svc:       NewRegistrationService(regRepo, eventRepo, userRepo, emails, discardLogger, 5*time.Second),
		regRepo:   regRepo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		emails:    emails,
	}
}

func (f *registrationFixture) seedOpenEvent() *domain.Event {
	event := &domain.Event{
		EventID:              "robo-race",
		Title:                "Robo Race",
		Venue:                "Ground",
		RegistrationDeadline: time.Now().Add(24 * time.Hour),
		CreatedBy:            organiserEmail,
	}
	f.eventRepo.events[event.EventID] = event
	return event
}

func TestRegistrationService_Register(t *testing.T) {
	f := newRegistrationFixture()
	f.seedOpenEvent()

	reg, err := f.svc.Register(context.Background(), "robo-race", studentEmail, ptr("Team Rocket"))
	require.NoError(t, err)
	assert.Equal(t, "robo-race", reg.EventID)
	assert.Equal(t, "21CS042", reg.RegisterNumber)
	assert.Equal(t, studentEmail, reg.Email)
	require.NotNil(t, reg.TeamName)
	assert.Equal(t, "Team Rocket", *reg.TeamName)

	require.Len(t, f.emails.sent, 1)
	assert.Equal(t, "Robo Race", f.emails.sent[0].EventTitle)
	assert.Equal(t, studentEmail, f.emails.sent[0].Email)
}

func TestRegistrationService_RegisterAfterDeadline(t *testing.T) {
	f := newRegistrationFixture()
	event := f.seedOpenEvent()
	event.RegistrationDeadline = time.Now().Add(-time.Second)

	_, err := f.svc.Register(context.Background(), "robo-race", studentEmail, nil)
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)
	assert.Empty(t, f.regRepo.regs)
}

func TestRegistrationService_RegisterDuplicate(t *testing.T) {
	f := newRegistrationFixture()
	f.seedOpenEvent()

	_, err := f.svc.Register(context.Background(), "robo-race", studentEmail, nil)
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), "robo-race", studentEmail, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegistrationService_RegisterMailFailureDoesNotUndo(t *testing.T) {
	f := newRegistrationFixture()
	f.seedOpenEvent()
	f.emails.sendErr = errors.New("ses down")

	reg, err := f.svc.Register(context.Background(), "robo-race", studentEmail, nil)
	require.NoError(t, err)
	assert.NotNil(t, reg)
	require.Len(t, f.regRepo.regs, 1)
}

func TestRegistrationService_RegisterUnknownEventOrUser(t *testing.T) {
	f := newRegistrationFixture()
	f.seedOpenEvent()

	_, err := f.svc.Register(context.Background(), "no-such-event", studentEmail, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Register(context.Background(), "robo-race", "ghost@college.edu", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRegistrationService_ListRegistrationsOwnerOnly(t *testing.T) {
	f := newRegistrationFixture()
	f.seedOpenEvent()
	_, err := f.svc.Register(context.Background(), "robo-race", studentEmail, nil)
	require.NoError(t, err)

	regs, err := f.svc.ListRegistrations(context.Background(), "robo-race", organiserEmail)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "21CS042", regs[0].RegisterNumber)

	// A different organiser does not own the event.
	f.userRepo.users["other@college.edu"] = &domain.User{Email: "other@college.edu", IsOrganiser: true}
	_, err = f.svc.ListRegistrations(context.Background(), "robo-race", "other@college.edu")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// The registrant is not an organiser at all.
	_, err = f.svc.ListRegistrations(context.Background(), "robo-race", studentEmail)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
