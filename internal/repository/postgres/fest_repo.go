package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"socio/internal/domain"
)

type festRepository struct {
	DB *sql.DB
}

func NewFestRepository(db *sql.DB) domain.FestRepository {
	return &festRepository{
		DB: db,
	}
}

const festColumns = `fest_id, fest_title, opening_date, closing_date, description, department_access,
	category, contact_email, contact_phone, event_heads, fest_image_url, organizing_dept,
	created_by, created_at, updated_at, updated_by`

func scanFest(s rowScanner) (*domain.Fest, error) {
	f := &domain.Fest{}
	var imageURL sql.NullString
	err := s.Scan(
		&f.FestID, &f.FestTitle, &f.OpeningDate, &f.ClosingDate, &f.Description, pq.Array(&f.DepartmentAccess),
		&f.Category, &f.ContactEmail, &f.ContactPhone, pq.Array(&f.EventHeads), &imageURL, &f.OrganizingDept,
		&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt, &f.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		f.FestImageURL = &imageURL.String
	}
	if f.DepartmentAccess == nil {
		f.DepartmentAccess = []string{}
	}
	if f.EventHeads == nil {
		f.EventHeads = []string{}
	}
	return f, nil
}

func (r *festRepository) Create(ctx context.Context, f *domain.Fest) error {
	query := `
		INSERT INTO fests (fest_id, fest_title, opening_date, closing_date, description, department_access,
			category, contact_email, contact_phone, event_heads, fest_image_url, organizing_dept,
			created_by, created_at, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.DB.ExecContext(ctx, query,
		f.FestID, f.FestTitle, f.OpeningDate, f.ClosingDate, f.Description, pq.Array(f.DepartmentAccess),
		f.Category, f.ContactEmail, f.ContactPhone, pq.Array(f.EventHeads), f.FestImageURL, f.OrganizingDept,
		f.CreatedBy, f.CreatedAt, f.UpdatedAt, f.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *festRepository) GetByID(ctx context.Context, festID string) (*domain.Fest, error) {
	query := fmt.Sprintf(`SELECT %s FROM fests WHERE fest_id = $1`, festColumns)
	f, err := scanFest(r.DB.QueryRowContext(ctx, query, festID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *festRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Fest, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM fests`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM fests ORDER BY opening_date ASC LIMIT $1 OFFSET $2`, festColumns)
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	fests := make([]*domain.Fest, 0)
	for rows.Next() {
		f, err := scanFest(rows)
		if err != nil {
			return nil, 0, err
		}
		fests = append(fests, f)
	}
	return fests, total, rows.Err()
}

func (r *festRepository) ListExpired(ctx context.Context, before time.Time) ([]*domain.Fest, error) {
	query := fmt.Sprintf(`SELECT %s FROM fests WHERE closing_date < $1`, festColumns)
	rows, err := r.DB.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fests := make([]*domain.Fest, 0)
	for rows.Next() {
		f, err := scanFest(rows)
		if err != nil {
			return nil, err
		}
		fests = append(fests, f)
	}
	return fests, rows.Err()
}

func (r *festRepository) Update(ctx context.Context, festID string, fields map[string]any) (*domain.Fest, error) {
	if len(fields) == 0 {
		return r.GetByID(ctx, festID)
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
	args = append(args, festID)

	query := fmt.Sprintf(`UPDATE fests SET %s WHERE fest_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), n, festColumns)
	f, err := scanFest(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return f, nil
}

func (r *festRepository) Delete(ctx context.Context, festID string) error {
	query := `DELETE FROM fests WHERE fest_id = $1`
	result, err := r.DB.ExecContext(ctx, query, festID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
