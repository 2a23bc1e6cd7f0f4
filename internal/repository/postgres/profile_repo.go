package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const profileColumns = `id, name, email, role, profile_completed, image_url, location, specialty, verified, created_at, updated_at`

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

func scanProfile(row pgx.Row) (*domain.ProfileRow, error) {
	var p domain.ProfileRow
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.Role, &p.ProfileCompleted,
		&p.ImageURL, &p.Location, &p.Specialty, &p.Verified,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*domain.ProfileRow, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *profileRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.ProfileRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.ProfileRow
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Upsert inserts the row or overwrites the mutable columns of an existing
// one. Columns left nil keep their stored value.
func (r *profileRepo) Upsert(ctx context.Context, p *domain.ProfileRow) error {
	query := `
		INSERT INTO profiles (id, name, email, role, profile_completed, image_url, location, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			profile_completed = COALESCE(EXCLUDED.profile_completed, profiles.profile_completed),
			image_url = COALESCE(EXCLUDED.image_url, profiles.image_url),
			location = COALESCE(EXCLUDED.location, profiles.location),
			specialty = COALESCE(EXCLUDED.specialty, profiles.specialty),
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Email, p.Role, p.ProfileCompleted,
		p.ImageURL, p.Location, p.Specialty,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.Conflict("A profile with this email already exists")
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Update sets only the fields present in update and returns the stored row.
func (r *profileRepo) Update(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.ProfileRow, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("name", update.Name)
	add("location", update.Location)
	add("specialty", update.Specialty)
	add("image_url", update.ImageURL)

	query := `UPDATE profiles SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + profileColumns
	p, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
