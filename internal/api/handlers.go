package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
)

// PhraseService is the phrase lifecycle used by the handlers
type PhraseService interface {
	Create(ctx context.Context, owner uuid.UUID, input models.PhraseInput) (*models.Phrase, error)
	Update(ctx context.Context, owner, externalID uuid.UUID, input models.PhraseInput) (*models.Phrase, error)
	UpdateStatuses(ctx context.Context, owner uuid.UUID, results map[uuid.UUID]models.QuizResult) error
	Delete(ctx context.Context, owner, externalID uuid.UUID) error
	DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error
	Get(ctx context.Context, owner, externalID uuid.UUID) (*models.Phrase, error)
	List(ctx context.Context, owner uuid.UUID, status, language string) ([]models.Phrase, error)
	ListRecent(ctx context.Context, owner uuid.UUID) ([]models.Phrase, error)
	Languages() []string
	QuizLanguages(ctx context.Context, owner uuid.UUID) ([]string, error)
	Tags(ctx context.Context, owner uuid.UUID) ([]string, error)
	SynthesizeOriginal(ctx context.Context, owner, externalID uuid.UUID) ([]byte, error)
	SynthesizeMeaning(ctx context.Context, owner, externalID uuid.UUID) ([]byte, error)
}

// ProgressReader reports the progress snapshot of one owner
type ProgressReader interface {
	GetProgress(ctx context.Context, owner uuid.UUID) (models.Snapshot, error)
}

// Handler serves the phrase endpoints
type Handler struct {
	phrases  PhraseService
	progress ProgressReader
}

// NewHandler creates a new handler
func NewHandler(phrases PhraseService, progress ProgressReader) *Handler {
	return &Handler{phrases: phrases, progress: progress}
}

// phraseView is the wire form of a phrase; languages travel as codes
type phraseView struct {
	ExternalID                     uuid.UUID `json:"external_phrase_id"`
	OriginalPhrase                 string    `json:"original_phrase"`
	OriginalLanguage               string    `json:"original_language"`
	Meaning                        string    `json:"meaning"`
	MeaningLanguage                string    `json:"meaning_language"`
	Notes                          string    `json:"notes"`
	Status                         string    `json:"status"`
	ConsecutiveCorrectAnswerAmount int       `json:"consecutive_correct_answer_amount"`
	InsertDateTime                 time.Time `json:"insert_date_time"`
	Tags                           []string  `json:"phrase_tags"`
}

func newPhraseView(p *models.Phrase) phraseView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return phraseView{
		ExternalID:                     p.ExternalID,
		OriginalPhrase:                 p.OriginalPhrase,
		OriginalLanguage:               p.OriginalLanguage.Code(),
		Meaning:                        p.Meaning,
		MeaningLanguage:                p.MeaningLanguage.Code(),
		Notes:                          p.Notes,
		Status:                         p.Status.Display(),
		ConsecutiveCorrectAnswerAmount: p.ConsecutiveCorrectAnswerAmount,
		InsertDateTime:                 p.InsertDateTime,
		Tags:                           tags,
	}
}

func newPhraseViews(phrases []models.Phrase) []phraseView {
	views := make([]phraseView, 0, len(phrases))
	for i := range phrases {
		views = append(views, newPhraseView(&phrases[i]))
	}
	return views
}

func owner(r *http.Request) (uuid.UUID, error) {
	id, ok := OwnerFromContext(r.Context())
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: request carries no owner", models.ErrIdentityUnavailable)
	}
	return id, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", models.ErrValidationFailed, name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", models.ErrValidationFailed, name)
	}
	return id, nil
}

// CreatePhrase handles POST /add-phrase
func (h *Handler) CreatePhrase(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	var input models.PhraseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	p, err := h.phrases.Create(r.Context(), ownerID, input)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, "The phrase has been created successfully.", newPhraseView(p))
}

// ListPhrases handles GET /phrases?status=&langCode=
func (h *Handler) ListPhrases(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	query := r.URL.Query()
	phrases, err := h.phrases.List(r.Context(), ownerID, query.Get("status"), query.Get("langCode"))
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The phrases have been retrieved successfully.", newPhraseViews(phrases))
}

// ListRecentPhrases handles GET /last-ten-phrases
func (h *Handler) ListRecentPhrases(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	phrases, err := h.phrases.ListRecent(r.Context(), ownerID)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The last 10 phrases have been retrieved successfully.", newPhraseViews(phrases))
}

// GetPhrase handles GET /phrase-details?phrase-id=
func (h *Handler) GetPhrase(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	phraseID, err := uuidParam(r, "phrase-id")
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	p, err := h.phrases.Get(r.Context(), ownerID, phraseID)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The phrase has been retrieved successfully.", newPhraseView(p))
}

// GetLanguages handles GET /languages
func (h *Handler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	respondWithData(w, http.StatusOK, "The languages have been retrieved successfully.", h.phrases.Languages())
}

// GetQuizLanguages handles GET /quiz-languages
func (h *Handler) GetQuizLanguages(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	languages, err := h.phrases.QuizLanguages(r.Context(), ownerID)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The quiz languages have been retrieved successfully.", languages)
}

// GetTags handles GET /tags
func (h *Handler) GetTags(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	tags, err := h.phrases.Tags(r.Context(), ownerID)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The tags have been retrieved successfully.", tags)
}

// GetProgress handles GET /progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	snapshot, err := h.progress.GetProgress(r.Context(), ownerID)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The progress has been retrieved successfully.", snapshot)
}

// UpdatePhrase handles PUT /update-phrase?phrase-id=
func (h *Handler) UpdatePhrase(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	phraseID, err := uuidParam(r, "phrase-id")
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	var input models.PhraseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	p, err := h.phrases.Update(r.Context(), ownerID, phraseID, input)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The phrase has been updated successfully.", newPhraseView(p))
}

// SubmitQuizResult handles PUT /quiz-result with a body keyed by phrase id
func (h *Handler) SubmitQuizResult(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	var results map[uuid.UUID]models.QuizResult
	if err := json.NewDecoder(r.Body).Decode(&results); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.phrases.UpdateStatuses(r.Context(), ownerID, results); err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "The statuses of the phrases have been updated successfully.", nil)
}

// DeletePhrase handles DELETE /delete-phrase?phrase-id=
func (h *Handler) DeletePhrase(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	phraseID, err := uuidParam(r, "phrase-id")
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	if err := h.phrases.Delete(r.Context(), ownerID, phraseID); err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllUserPhrases handles DELETE /delete-all-user-phrases?external-user-id=.
// It is called when a user account is removed, so the target owner comes from
// the query rather than from the caller's token.
func (h *Handler) DeleteAllUserPhrases(w http.ResponseWriter, r *http.Request) {
	target, err := uuidParam(r, "external-user-id")
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	if err := h.phrases.DeleteAllByOwner(r.Context(), target); err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OriginalPronunciation handles POST /pronunciation/original?phrase-id=
func (h *Handler) OriginalPronunciation(w http.ResponseWriter, r *http.Request) {
	h.pronunciation(w, r, h.phrases.SynthesizeOriginal)
}

// MeaningPronunciation handles POST /pronunciation/meaning?phrase-id=
func (h *Handler) MeaningPronunciation(w http.ResponseWriter, r *http.Request) {
	h.pronunciation(w, r, h.phrases.SynthesizeMeaning)
}

// pronunciation returns MP3 audio, base64 encoded in the data field
func (h *Handler) pronunciation(w http.ResponseWriter, r *http.Request,
	synthesize func(ctx context.Context, owner, externalID uuid.UUID) ([]byte, error)) {
	ownerID, err := owner(r)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	phraseID, err := uuidParam(r, "phrase-id")
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	audio, err := synthesize(r.Context(), ownerID, phraseID)
	if err != nil {
		respondWithEngineError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, "", audio)
}
