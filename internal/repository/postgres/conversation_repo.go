package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type conversationRepo struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) domain.ConversationRepository {
	return &conversationRepo{db: db}
}

// ListForUser returns conversations the user takes part in, most recently
// active first.
func (r *conversationRepo) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	query := `
		SELECT id, patient_id, doctor_id, status, created_at, updated_at
		FROM conversations
		WHERE patient_id = $1 OR doctor_id = $1
		ORDER BY updated_at DESC NULLS LAST`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	convs := []domain.Conversation{}
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `SELECT id, patient_id, doctor_id, status, created_at, updated_at FROM conversations WHERE id = $1`
	var c domain.Conversation
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

func (r *conversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	query := `
		INSERT INTO conversations (patient_id, doctor_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, c.PatientID, c.DoctorID, c.Status).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return apperror.Conflict("A conversation between these users already exists")
			case pgForeignKeyViolation:
				return apperror.BadRequest("Unknown patient or doctor")
			}
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (r *conversationRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}
