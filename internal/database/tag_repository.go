package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TagRepository handles database operations for tags
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new repository instance
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// FindByOwnerAndName returns the owner's tag with the given name, or nil if there is none
func (r *TagRepository) FindByOwnerAndName(ctx context.Context, owner uuid.UUID, name string) (*models.Tag, error) {
	query := r.db.Rebind(`
		SELECT id, tag_name, owner_user_account_id
		FROM tags
		WHERE owner_user_account_id = ? AND tag_name = ?`)

	var tag models.Tag
	err := r.db.GetContext(ctx, &tag, query, owner, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// Create inserts a new tag. A concurrent insert of the same tag yields ErrDuplicateKey.
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	query := r.db.Rebind(`
		INSERT INTO tags (tag_name, owner_user_account_id)
		VALUES (?, ?)
		RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query, tag.TagName, tag.OwnerUserAccountID).Scan(&tag.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tag %q", models.ErrDuplicateKey, tag.TagName)
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// ListNamesByOwner returns the names of every tag the owner holds
func (r *TagRepository) ListNamesByOwner(ctx context.Context, owner uuid.UUID) ([]string, error) {
	query := r.db.Rebind(`
		SELECT tag_name
		FROM tags
		WHERE owner_user_account_id = ?
		ORDER BY tag_name`)

	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query, owner); err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return names, nil
}
