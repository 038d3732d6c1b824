package postgres

import (
	"context"
	"testing"
	"time"

	"socio/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestRegistrationRepository_Create(t *testing.T) {
	ctx := context.Background()
	reg := &domain.Registration{
		EventID:        "robo-race",
		RegisterNumber: "21CS042",
		Email:          "student@college.edu",
		CreatedAt:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO registrations`).
			WithArgs("robo-race", "21CS042", "student@college.edu", nil, reg.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("reg-1"))

		repo := NewRegistrationRepository(db)
		require.NoError(t, repo.Create(ctx, reg))
		require.Equal(t, "reg-1", reg.ID)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO registrations`).
			WillReturnError(&pq.Error{Code: "23505"})

		repo := NewRegistrationRepository(db)
		require.ErrorIs(t, repo.Create(ctx, reg), domain.ErrConflict)
	})
}

func TestRegistrationRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM registrations`).
		WithArgs("robo-race").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "register_number", "email", "team_name", "created_at"}).
			AddRow("reg-1", "robo-race", "21CS042", "a@college.edu", "Team Rocket", created).
			AddRow("reg-2", "robo-race", "21CS043", "b@college.edu", nil, created))

	repo := NewRegistrationRepository(db)
	regs, err := repo.ListByEventID(ctx, "robo-race")
	require.NoError(t, err)
	require.Len(t, regs, 2)
	require.NotNil(t, regs[0].TeamName)
	require.Equal(t, "Team Rocket", *regs[0].TeamName)
	require.Nil(t, regs[1].TeamName)
}

func TestRegistrationRepository_DeleteByEventID(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM registrations WHERE event_id = \$1`).
		WithArgs("robo-race").
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewRegistrationRepository(db)
	n, err := repo.DeleteByEventID(ctx, "robo-race")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	// Zero rows is not an error; the sweep may race a user delete.
	mock.ExpectExec(`DELETE FROM registrations WHERE event_id = \$1`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	n, err = repo.DeleteByEventID(ctx, "gone")
	require.NoError(t, err)
	require.Zero(t, n)
}
