package postgres

import (
	"context"
	"database/sql"

	"socio/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (event_id, register_number, email, team_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.RegisterNumber, reg.Email, reg.TeamName, reg.CreatedAt,
	).Scan(&reg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `
		SELECT id, event_id, register_number, email, team_name, created_at
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg := &domain.Registration{}
		var teamName sql.NullString
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.RegisterNumber, &reg.Email, &teamName, &reg.CreatedAt); err != nil {
			return nil, err
		}
		if teamName.Valid {
			reg.TeamName = &teamName.String
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) DeleteByEventID(ctx context.Context, eventID string) (int64, error) {
	query := `DELETE FROM registrations WHERE event_id = $1`
	result, err := r.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}
