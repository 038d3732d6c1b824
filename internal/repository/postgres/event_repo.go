package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"socio/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `event_id, title, description, event_date, end_date, event_time, category,
	organizing_dept, department_access, fest, registration_deadline, venue, registration_fee,
	participants_per_team, organizer_email, organizer_phone, whatsapp_invite_link, claims_applicable,
	schedule, rules, prizes, event_image_url, banner_url, pdf_url,
	(SELECT COUNT(*) FROM registrations r WHERE r.event_id = events.event_id) AS total_participants,
	created_by, created_at, updated_at, updated_by`

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, surfaced to callers as ErrConflict.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var endDate sql.NullTime
	var fest, organizerPhone, whatsapp, imageURL, bannerURL, pdfURL sql.NullString
	var fee sql.NullFloat64
	var participants sql.NullInt64
	var schedule []byte
	err := s.Scan(
		&e.EventID, &e.Title, &e.Description, &e.EventDate, &endDate, &e.EventTime, &e.Category,
		&e.OrganizingDept, pq.Array(&e.DepartmentAccess), &fest, &e.RegistrationDeadline, &e.Venue, &fee,
		&participants, &e.OrganizerEmail, &organizerPhone, &whatsapp, &e.ClaimsApplicable,
		&schedule, pq.Array(&e.Rules), pq.Array(&e.Prizes), &imageURL, &bannerURL, &pdfURL,
		&e.TotalParticipants,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &e.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		e.EndDate = &endDate.Time
	}
	if fest.Valid {
		e.Fest = &fest.String
	}
	if fee.Valid {
		e.RegistrationFee = &fee.Float64
	}
	if participants.Valid {
		n := int(participants.Int64)
		e.ParticipantsPerTeam = &n
	}
	if organizerPhone.Valid {
		e.OrganizerPhone = &organizerPhone.String
	}
	if whatsapp.Valid {
		e.WhatsappInviteLink = &whatsapp.String
	}
	if imageURL.Valid {
		e.EventImageURL = &imageURL.String
	}
	if bannerURL.Valid {
		e.BannerURL = &bannerURL.String
	}
	if pdfURL.Valid {
		e.PDFURL = &pdfURL.String
	}
	e.Schedule = []domain.ScheduleItem{}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &e.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
	}
	if e.DepartmentAccess == nil {
		e.DepartmentAccess = []string{}
	}
	if e.Rules == nil {
		e.Rules = []string{}
	}
	if e.Prizes == nil {
		e.Prizes = []string{}
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	schedule, err := json.Marshal(e.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	query := `
		INSERT INTO events (event_id, title, description, event_date, end_date, event_time, category,
			organizing_dept, department_access, fest, registration_deadline, venue, registration_fee,
			participants_per_team, organizer_email, organizer_phone, whatsapp_invite_link, claims_applicable,
			schedule, rules, prizes, event_image_url, banner_url, pdf_url, created_by, created_at, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`
	_, err = r.DB.ExecContext(ctx, query,
		e.EventID, e.Title, e.Description, e.EventDate, e.EndDate, e.EventTime, e.Category,
		e.OrganizingDept, pq.Array(e.DepartmentAccess), e.Fest, e.RegistrationDeadline, e.Venue, e.RegistrationFee,
		e.ParticipantsPerTeam, e.OrganizerEmail, e.OrganizerPhone, e.WhatsappInviteLink, e.ClaimsApplicable,
		schedule, pq.Array(e.Rules), pq.Array(e.Prizes), e.EventImageURL, e.BannerURL, e.PDFURL,
		e.CreatedBy, e.CreatedAt, e.UpdatedAt, e.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, eventID string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE event_id = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where := []string{}
	args := []any{}
	n := 1
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", n))
		args = append(args, filter.Category)
		n++
	}
	if filter.Dept != "" {
		where = append(where, fmt.Sprintf("$%d = ANY(department_access)", n))
		args = append(args, filter.Dept)
		n++
	}
	if filter.Fest != "" {
		where = append(where, fmt.Sprintf("fest = $%d", n))
		args = append(args, filter.Fest)
		n++
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM events" + whereClause
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY event_date ASC LIMIT $%d OFFSET $%d`,
		eventColumns, whereClause, n, n+1)
	args = append(args, params.PageSize, params.Offset())
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) ListByFest(ctx context.Context, festID string) ([]*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE fest = $1 ORDER BY event_date ASC`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, festID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListExpired(ctx context.Context, before time.Time) ([]*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE fest IS NULL AND COALESCE(end_date, event_date) < $1`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update applies the given column -> value pairs. Columns are sorted so the
// generated SQL is deterministic. Array columns go through pq.Array and the
// schedule is stored as JSON.
func (r *eventRepository) Update(ctx context.Context, eventID string, fields map[string]any) (*domain.Event, error) {
	if len(fields) == 0 {
		return r.GetByID(ctx, eventID)
	}
	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setClauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	n := 1
	for _, col := range columns {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, n))
		arg, err := toSQLValue(col, fields[col])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		n++
	}
	args = append(args, eventID)

	query := fmt.Sprintf(`UPDATE events SET %s WHERE event_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), n, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return e, nil
}

func toSQLValue(column string, v any) (any, error) {
	switch column {
	case "department_access", "rules", "prizes", "event_heads":
		s, ok := v.([]string)
		if !ok {
			return nil, fmt.Errorf("column %s expects a string slice", column)
		}
		return pq.Array(s), nil
	case "schedule":
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode schedule: %w", err)
		}
		return b, nil
	default:
		return v, nil
	}
}

func (r *eventRepository) Delete(ctx context.Context, eventID string) error {
	query := `DELETE FROM events WHERE event_id = $1`
	result, err := r.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
