package models

import (
	"time"

	"github.com/google/uuid"
)

// Phrase is a foreign-language phrase recorded by its owner
type Phrase struct {
	ID                             int64     `json:"-" db:"id"`
	ExternalID                     uuid.UUID `json:"external_phrase_id" db:"external_phrase_id"`
	OriginalPhrase                 string    `json:"original_phrase" db:"original_phrase"`
	OriginalLanguage               Language  `json:"original_language" db:"original_language"`
	Meaning                        string    `json:"meaning" db:"meaning"`
	MeaningLanguage                Language  `json:"meaning_language" db:"meaning_language"`
	Notes                          string    `json:"notes" db:"notes"`
	Status                         Status    `json:"status" db:"status"`
	ConsecutiveCorrectAnswerAmount int       `json:"consecutive_correct_answer_amount" db:"consecutive_correct_answer_amount"`
	OwnerUserAccountID             uuid.UUID `json:"owner_user_account_id" db:"owner_user_account_id"`
	InsertDateTime                 time.Time `json:"insert_date_time" db:"insert_date_time"`
	Tags                           []string  `json:"phrase_tags" db:"-"` // lowercase tag names
}

// PhraseInput carries the caller-editable fields of a phrase.
// Languages are given as codes, e.g. "fr" or "zh-CN".
type PhraseInput struct {
	OriginalPhrase   string   `json:"original_phrase"`
	OriginalLanguage string   `json:"original_language"`
	Meaning          string   `json:"meaning"`
	MeaningLanguage  string   `json:"meaning_language"`
	Notes            string   `json:"notes"`
	Tags             []string `json:"phrase_tags"`
}

// QuizResult is what one quiz session reports for a single phrase
type QuizResult struct {
	// Correct answers in a row at the end of the session
	ConsecutiveCorrectAmount int `json:"consecutive_correct_amount"`
	// Whether the user answered wrong or ran out of time at least once
	AnsweredWrongAtLeastOnce bool `json:"answered_wrong_at_least_once"`
}
