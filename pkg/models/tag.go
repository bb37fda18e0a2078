package models

import "github.com/google/uuid"

// Tag is an owner-scoped label attached to phrases
type Tag struct {
	ID                 int64     `json:"id" db:"id"`
	TagName            string    `json:"tag_name" db:"tag_name"`
	OwnerUserAccountID uuid.UUID `json:"owner_user_account_id" db:"owner_user_account_id"`
}

// DefaultTags are offered to every owner regardless of what they have used
var DefaultTags = []string{"adjective", "adverb", "noun", "pronoun", "verb"}
