package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ProgressRepository counts phrases for progress reporting
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// CountLearned counts the owner's learned phrases
func (r *ProgressRepository) CountLearned(ctx context.Context, owner uuid.UUID) (int, error) {
	return r.count(ctx, "learned phrases",
		"SELECT COUNT(*) FROM phrases WHERE owner_user_account_id = ? AND status = ?",
		owner, models.StatusLearned)
}

// CountTotal counts all of the owner's phrases
func (r *ProgressRepository) CountTotal(ctx context.Context, owner uuid.UUID) (int, error) {
	return r.count(ctx, "phrases",
		"SELECT COUNT(*) FROM phrases WHERE owner_user_account_id = ?",
		owner)
}

// CountLearnedSince counts learned phrases inserted at or after since
func (r *ProgressRepository) CountLearnedSince(ctx context.Context, owner uuid.UUID, since time.Time) (int, error) {
	return r.count(ctx, "learned phrases",
		`SELECT COUNT(*) FROM phrases
		WHERE owner_user_account_id = ? AND status = ? AND insert_date_time >= ?`,
		owner, models.StatusLearned, since.UTC())
}

// CountAddedSince counts phrases inserted at or after since
func (r *ProgressRepository) CountAddedSince(ctx context.Context, owner uuid.UUID, since time.Time) (int, error) {
	return r.count(ctx, "added phrases",
		`SELECT COUNT(*) FROM phrases
		WHERE owner_user_account_id = ? AND insert_date_time >= ?`,
		owner, since.UTC())
}

// CountGroupedByOwner returns learned and added counts of every owner with phrases
// inserted at or after since. A nil since counts all phrases.
func (r *ProgressRepository) CountGroupedByOwner(ctx context.Context, since *time.Time) ([]models.OwnerProgress, error) {
	query := `
		SELECT owner_user_account_id,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS learned,
			COUNT(*) AS added
		FROM phrases`
	args := []interface{}{models.StatusLearned}
	if since != nil {
		query += " WHERE insert_date_time >= ?"
		args = append(args, since.UTC())
	}
	query += " GROUP BY owner_user_account_id ORDER BY owner_user_account_id"

	rows := []models.OwnerProgress{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to count progress by owner: %w", err)
	}
	return rows, nil
}

func (r *ProgressRepository) count(ctx context.Context, what, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}
