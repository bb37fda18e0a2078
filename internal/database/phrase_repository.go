package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const phraseColumns = `
	id, external_phrase_id, original_phrase, original_language, meaning,
	meaning_language, notes, status, consecutive_correct_answer_amount,
	owner_user_account_id, insert_date_time`

// PhraseRepository handles database operations for phrases and their tag links
type PhraseRepository struct {
	db *sqlx.DB
}

// NewPhraseRepository creates a new repository instance
func NewPhraseRepository(db *sqlx.DB) *PhraseRepository {
	return &PhraseRepository{db: db}
}

// FindByNaturalKey returns the owner's phrase with the given text, or nil if there is none
func (r *PhraseRepository) FindByNaturalKey(ctx context.Context, originalPhrase string, owner uuid.UUID) (*models.Phrase, error) {
	query := r.db.Rebind(`SELECT ` + phraseColumns + `
		FROM phrases
		WHERE original_phrase = ? AND owner_user_account_id = ?`)

	var phrase models.Phrase
	err := r.db.GetContext(ctx, &phrase, query, originalPhrase, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phrase: %w", err)
	}

	phrases := []models.Phrase{phrase}
	if err := r.loadTags(ctx, phrases); err != nil {
		return nil, err
	}
	return &phrases[0], nil
}

// FindByExternalID returns the owner's phrase with the given external id
func (r *PhraseRepository) FindByExternalID(ctx context.Context, externalID, owner uuid.UUID) (*models.Phrase, error) {
	query := r.db.Rebind(`SELECT ` + phraseColumns + `
		FROM phrases
		WHERE external_phrase_id = ? AND owner_user_account_id = ?`)

	var phrase models.Phrase
	err := r.db.GetContext(ctx, &phrase, query, externalID, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: phrase %s", models.ErrNotFound, externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phrase: %w", err)
	}

	phrases := []models.Phrase{phrase}
	if err := r.loadTags(ctx, phrases); err != nil {
		return nil, err
	}
	return &phrases[0], nil
}

// ListFiltered returns the owner's phrases, optionally narrowed by status and
// by a language matching either side of the phrase
func (r *PhraseRepository) ListFiltered(ctx context.Context, owner uuid.UUID, status *models.Status, language *models.Language) ([]models.Phrase, error) {
	conditions := []string{"owner_user_account_id = ?"}
	args := []interface{}{owner}

	if status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *status)
	}
	if language != nil {
		conditions = append(conditions, "(original_language = ? OR meaning_language = ?)")
		args = append(args, *language, *language)
	}

	query := r.db.Rebind(`SELECT ` + phraseColumns + `
		FROM phrases
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY insert_date_time DESC, id DESC`)

	return r.selectPhrases(ctx, query, args...)
}

// ListRecent returns the owner's newest phrases
func (r *PhraseRepository) ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]models.Phrase, error) {
	query := r.db.Rebind(`SELECT ` + phraseColumns + `
		FROM phrases
		WHERE owner_user_account_id = ?
		ORDER BY insert_date_time DESC, id DESC
		LIMIT ?`)

	return r.selectPhrases(ctx, query, owner, limit)
}

// DistinctLanguages returns every language used on either side of the owner's phrases
func (r *PhraseRepository) DistinctLanguages(ctx context.Context, owner uuid.UUID) ([]models.Language, error) {
	query := r.db.Rebind(`
		SELECT original_language FROM phrases WHERE owner_user_account_id = ?
		UNION
		SELECT meaning_language FROM phrases WHERE owner_user_account_id = ?`)

	var languages []models.Language
	if err := r.db.SelectContext(ctx, &languages, query, owner, owner); err != nil {
		return nil, fmt.Errorf("failed to get languages: %w", err)
	}
	return languages, nil
}

// Create inserts a new phrase together with its tag links
func (r *PhraseRepository) Create(ctx context.Context, phrase *models.Phrase, tagIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	query := tx.Rebind(`
		INSERT INTO phrases (
			external_phrase_id, original_phrase, original_language, meaning,
			meaning_language, notes, status, consecutive_correct_answer_amount,
			owner_user_account_id, insert_date_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err = tx.QueryRowxContext(ctx, query,
		phrase.ExternalID,
		phrase.OriginalPhrase,
		phrase.OriginalLanguage,
		phrase.Meaning,
		phrase.MeaningLanguage,
		phrase.Notes,
		phrase.Status,
		phrase.ConsecutiveCorrectAnswerAmount,
		phrase.OwnerUserAccountID,
		phrase.InsertDateTime.UTC(),
	).Scan(&phrase.ID)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: phrase %q", models.ErrDuplicateKey, phrase.OriginalPhrase)
		}
		return fmt.Errorf("failed to create phrase: %w", err)
	}

	if err := linkTags(ctx, tx, phrase.ID, tagIDs); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update overwrites every stored field of a phrase and replaces its tag links
func (r *PhraseRepository) Update(ctx context.Context, phrase *models.Phrase, tagIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	query := tx.Rebind(`
		UPDATE phrases SET
			original_phrase = ?,
			original_language = ?,
			meaning = ?,
			meaning_language = ?,
			notes = ?,
			status = ?,
			consecutive_correct_answer_amount = ?,
			insert_date_time = ?
		WHERE id = ? AND owner_user_account_id = ?`)

	result, err := tx.ExecContext(ctx, query,
		phrase.OriginalPhrase,
		phrase.OriginalLanguage,
		phrase.Meaning,
		phrase.MeaningLanguage,
		phrase.Notes,
		phrase.Status,
		phrase.ConsecutiveCorrectAnswerAmount,
		phrase.InsertDateTime.UTC(),
		phrase.ID,
		phrase.OwnerUserAccountID,
	)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: phrase %q", models.ErrDuplicateKey, phrase.OriginalPhrase)
		}
		return fmt.Errorf("failed to update phrase: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: phrase %s", models.ErrNotFound, phrase.ExternalID)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM phrase_tags WHERE phrase_id = ?"), phrase.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to unlink tags: %w", err)
	}

	if err := linkTags(ctx, tx, phrase.ID, tagIDs); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateProgress stores the streak and status of every given phrase in one transaction.
// Either all rows are written or none are.
func (r *PhraseRepository) UpdateProgress(ctx context.Context, phrases []models.Phrase) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	query := tx.Rebind(`
		UPDATE phrases SET
			consecutive_correct_answer_amount = ?,
			status = ?
		WHERE id = ? AND owner_user_account_id = ?`)

	for _, phrase := range phrases {
		result, err := tx.ExecContext(ctx, query,
			phrase.ConsecutiveCorrectAnswerAmount,
			phrase.Status,
			phrase.ID,
			phrase.OwnerUserAccountID,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update progress of phrase %s: %w", phrase.ExternalID, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			tx.Rollback()
			return fmt.Errorf("%w: phrase %s", models.ErrNotFound, phrase.ExternalID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a phrase and its tag links. Tags themselves are kept.
func (r *PhraseRepository) Delete(ctx context.Context, phraseID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM phrase_tags WHERE phrase_id = ?"), phraseID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete tag links: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM phrases WHERE id = ?"), phraseID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete phrase: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: phrase id %d", models.ErrNotFound, phraseID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteAllByOwner removes every phrase, tag link and tag of the owner
func (r *PhraseRepository) DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	statements := []struct {
		what  string
		query string
	}{
		{"tag links", `DELETE FROM phrase_tags WHERE phrase_id IN (
			SELECT id FROM phrases WHERE owner_user_account_id = ?)`},
		{"phrases", "DELETE FROM phrases WHERE owner_user_account_id = ?"},
		{"tags", "DELETE FROM tags WHERE owner_user_account_id = ?"},
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt.query), owner); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete %s: %w", stmt.what, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PhraseRepository) selectPhrases(ctx context.Context, query string, args ...interface{}) ([]models.Phrase, error) {
	phrases := []models.Phrase{}
	if err := r.db.SelectContext(ctx, &phrases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get phrases: %w", err)
	}
	if err := r.loadTags(ctx, phrases); err != nil {
		return nil, err
	}
	return phrases, nil
}

// loadTags fills the Tags field of every phrase with a single query
func (r *PhraseRepository) loadTags(ctx context.Context, phrases []models.Phrase) error {
	if len(phrases) == 0 {
		return nil
	}

	ids := make([]int64, len(phrases))
	index := make(map[int64]int, len(phrases))
	for i := range phrases {
		ids[i] = phrases[i].ID
		index[phrases[i].ID] = i
		phrases[i].Tags = []string{}
	}

	query, args, err := sqlx.In(`
		SELECT pt.phrase_id, t.tag_name
		FROM phrase_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.phrase_id IN (?)
		ORDER BY t.tag_name`, ids)
	if err != nil {
		return fmt.Errorf("failed to build tag query: %w", err)
	}

	var links []struct {
		PhraseID int64  `db:"phrase_id"`
		TagName  string `db:"tag_name"`
	}
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to get phrase tags: %w", err)
	}

	for _, link := range links {
		i := index[link.PhraseID]
		phrases[i].Tags = append(phrases[i].Tags, link.TagName)
	}
	return nil
}

func linkTags(ctx context.Context, tx *sqlx.Tx, phraseID int64, tagIDs []int64) error {
	query := tx.Rebind("INSERT INTO phrase_tags (phrase_id, tag_id) VALUES (?, ?)")
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, query, phraseID, tagID); err != nil {
			return fmt.Errorf("failed to link tag %d: %w", tagID, err)
		}
	}
	return nil
}
