package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/internhub/internhub-api/internal/models"
)

const offerColumns = `id, application_id, student_id, job_id, supervisor_id, company_id,
       content, start_date, end_date, organization, representative, status,
       student_response, responded_at, created_at`

// OfferRepository reads offer letters. Creation happens inside the hire
// transaction owned by ApplicationRepository.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository constructs the repository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// GetByID fetches an offer letter by identifier.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*models.OfferLetter, error) {
	query := fmt.Sprintf(`SELECT %s FROM offer_letters WHERE id = $1`, offerColumns)
	var offer models.OfferLetter
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetByApplicationID fetches the offer letter bound to an application.
func (r *OfferRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.OfferLetter, error) {
	query := fmt.Sprintf(`SELECT %s FROM offer_letters WHERE application_id = $1`, offerColumns)
	var offer models.OfferLetter
	if err := r.db.GetContext(ctx, &offer, query, applicationID); err != nil {
		return nil, err
	}
	return &offer, nil
}

// List returns offers matching the filter (newest first).
func (r *OfferRepository) List(ctx context.Context, filter models.OfferFilter) ([]models.OfferLetter, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM offer_letters", offerColumns))

	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var offers []models.OfferLetter
	if err := r.db.SelectContext(ctx, &offers, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// RecordResponse stores the student's one-time accept/decline decision.
// The status guard makes replays and double responses no-ops at the row level.
func (r *OfferRepository) RecordResponse(ctx context.Context, id string, status models.OfferStatus, response *string, respondedAt time.Time) error {
	const query = `UPDATE offer_letters SET
		status = $1,
		student_response = $2,
		responded_at = $3
	WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, status, response, respondedAt, id, models.OfferSent)
	if err != nil {
		return fmt.Errorf("record offer response: %w", err)
	}
	return requireRowsAffected(result)
}

// CountByApplicationID supports the one-offer-per-hire invariant checks.
func (r *OfferRepository) CountByApplicationID(ctx context.Context, applicationID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM offer_letters WHERE application_id = $1`, applicationID); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return count, nil
}
