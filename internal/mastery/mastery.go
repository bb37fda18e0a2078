package mastery

import (
	"fmt"

	"github.com/example/phrasebot/pkg/models"
)

// LearnedThreshold is the streak a phrase must exceed to count as learned
const LearnedThreshold = 10

// Rule turns quiz session results into streak and status changes
type Rule struct {
	// A phrase is learned once its streak is strictly greater than this
	Threshold int
}

// NewRule creates a rule with the default threshold
func NewRule() *Rule {
	return &Rule{Threshold: LearnedThreshold}
}

// Apply updates the phrase's streak and status from one quiz session.
//
// A session with at least one wrong or timed-out answer restarts the streak
// from the correct answers given after the last miss; a clean session extends it.
func (r *Rule) Apply(phrase *models.Phrase, result models.QuizResult) error {
	if result.ConsecutiveCorrectAmount < 0 {
		return fmt.Errorf("%w: negative correct answer amount %d for phrase %s",
			models.ErrValidationFailed, result.ConsecutiveCorrectAmount, phrase.ExternalID)
	}

	if result.AnsweredWrongAtLeastOnce {
		phrase.ConsecutiveCorrectAnswerAmount = result.ConsecutiveCorrectAmount
	} else {
		phrase.ConsecutiveCorrectAnswerAmount += result.ConsecutiveCorrectAmount
	}

	phrase.Status = r.StatusFor(phrase.ConsecutiveCorrectAnswerAmount)
	return nil
}

// StatusFor derives the status implied by a streak
func (r *Rule) StatusFor(streak int) models.Status {
	if streak > r.Threshold {
		return models.StatusLearned
	}
	return models.StatusInProgress
}
