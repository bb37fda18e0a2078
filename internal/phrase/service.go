package phrase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/phrasebot/internal/mastery"
	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
)

// RecentLimit is the number of phrases returned by ListRecent
const RecentLimit = 10

// Store is the phrase storage used by the service
type Store interface {
	FindByNaturalKey(ctx context.Context, originalPhrase string, owner uuid.UUID) (*models.Phrase, error)
	FindByExternalID(ctx context.Context, externalID, owner uuid.UUID) (*models.Phrase, error)
	ListFiltered(ctx context.Context, owner uuid.UUID, status *models.Status, language *models.Language) ([]models.Phrase, error)
	ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]models.Phrase, error)
	DistinctLanguages(ctx context.Context, owner uuid.UUID) ([]models.Language, error)
	Create(ctx context.Context, phrase *models.Phrase, tagIDs []int64) error
	Update(ctx context.Context, phrase *models.Phrase, tagIDs []int64) error
	UpdateProgress(ctx context.Context, phrases []models.Phrase) error
	Delete(ctx context.Context, phraseID int64) error
	DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error
}

// TagResolver turns raw tag names into persisted tags
type TagResolver interface {
	ResolveAll(ctx context.Context, owner uuid.UUID, rawNames []string) ([]models.Tag, error)
	ListTags(ctx context.Context, owner uuid.UUID) ([]string, error)
}

// Synthesizer produces spoken audio for a text
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

// Service implements the phrase lifecycle for a single owner per call
type Service struct {
	store       Store
	tags        TagResolver
	rule        *mastery.Rule
	synthesizer Synthesizer
	now         func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSynthesizer enables pronunciation
func WithSynthesizer(synthesizer Synthesizer) Option {
	return func(s *Service) { s.synthesizer = synthesizer }
}

// NewService creates the phrase service
func NewService(store Store, tags TagResolver, opts ...Option) *Service {
	s := &Service{
		store: store,
		tags:  tags,
		rule:  mastery.NewRule(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new phrase for the owner and returns it with its resolved tags
func (s *Service) Create(ctx context.Context, owner uuid.UUID, input models.PhraseInput) (*models.Phrase, error) {
	fields, err := validate(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByNaturalKey(ctx, fields.OriginalPhrase, owner)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: phrase %q", models.ErrAlreadyExists, fields.OriginalPhrase)
	}

	tags, err := s.tags.ResolveAll(ctx, owner, input.Tags)
	if err != nil {
		return nil, err
	}

	p := fields
	p.ExternalID = uuid.New()
	p.OwnerUserAccountID = owner
	p.Status = models.StatusInProgress
	p.ConsecutiveCorrectAnswerAmount = 0
	p.InsertDateTime = s.timestamp()
	p.Tags = tagNames(tags)

	if err := s.store.Create(ctx, &p, tagIDs(tags)); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: phrase %q", models.ErrAlreadyExists, p.OriginalPhrase)
		}
		return nil, err
	}

	slog.Debug("phrase created", "owner", owner, "phrase_id", p.ExternalID)
	return &p, nil
}

// Update replaces every editable field of a phrase. Learning progress starts
// over and the insert time moves to now.
func (s *Service) Update(ctx context.Context, owner, externalID uuid.UUID, input models.PhraseInput) (*models.Phrase, error) {
	fields, err := validate(input)
	if err != nil {
		return nil, err
	}

	p, err := s.store.FindByExternalID(ctx, externalID, owner)
	if err != nil {
		return nil, err
	}

	tags, err := s.tags.ResolveAll(ctx, owner, input.Tags)
	if err != nil {
		return nil, err
	}

	p.OriginalPhrase = fields.OriginalPhrase
	p.OriginalLanguage = fields.OriginalLanguage
	p.Meaning = fields.Meaning
	p.MeaningLanguage = fields.MeaningLanguage
	p.Notes = fields.Notes
	p.ConsecutiveCorrectAnswerAmount = 0
	p.Status = models.StatusInProgress
	p.InsertDateTime = s.timestamp()
	p.Tags = tagNames(tags)

	if err := s.store.Update(ctx, p, tagIDs(tags)); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: phrase %q", models.ErrAlreadyExists, p.OriginalPhrase)
		}
		return nil, err
	}
	return p, nil
}

// UpdateStatuses applies one quiz session's results. Every phrase is looked up
// before anything is written, and all updates are stored together: an unknown id
// or a bad result leaves every phrase unchanged.
func (s *Service) UpdateStatuses(ctx context.Context, owner uuid.UUID, results map[uuid.UUID]models.QuizResult) error {
	ids := make([]uuid.UUID, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	updated := make([]models.Phrase, 0, len(ids))
	for _, id := range ids {
		p, err := s.store.FindByExternalID(ctx, id, owner)
		if err != nil {
			return err
		}
		if err := s.rule.Apply(p, results[id]); err != nil {
			return err
		}
		updated = append(updated, *p)
	}

	if len(updated) == 0 {
		return nil
	}
	return s.store.UpdateProgress(ctx, updated)
}

// Delete removes one phrase of the owner
func (s *Service) Delete(ctx context.Context, owner, externalID uuid.UUID) error {
	p, err := s.store.FindByExternalID(ctx, externalID, owner)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("%w: phrase %s: %v", models.ErrCannotDelete, externalID, err)
	}
	return nil
}

// DeleteAllByOwner purges the owner's phrases and tags
func (s *Service) DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error {
	if err := s.store.DeleteAllByOwner(ctx, owner); err != nil {
		return fmt.Errorf("%w: phrases of %s: %v", models.ErrCannotDelete, owner, err)
	}
	slog.Info("deleted all phrases of owner", "owner", owner)
	return nil
}

// Get returns one phrase of the owner
func (s *Service) Get(ctx context.Context, owner, externalID uuid.UUID) (*models.Phrase, error) {
	return s.store.FindByExternalID(ctx, externalID, owner)
}

// List returns the owner's phrases. Empty filters match everything; the
// language filter accepts a code or a display name and matches either side.
func (s *Service) List(ctx context.Context, owner uuid.UUID, status, language string) ([]models.Phrase, error) {
	var statusFilter *models.Status
	if strings.TrimSpace(status) != "" {
		st, err := models.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		statusFilter = &st
	}

	var languageFilter *models.Language
	if strings.TrimSpace(language) != "" {
		lang, err := models.ParseLanguage(language)
		if err != nil {
			return nil, err
		}
		languageFilter = &lang
	}

	return s.store.ListFiltered(ctx, owner, statusFilter, languageFilter)
}

// ListRecent returns the owner's ten newest phrases
func (s *Service) ListRecent(ctx context.Context, owner uuid.UUID) ([]models.Phrase, error) {
	return s.store.ListRecent(ctx, owner, RecentLimit)
}

// Languages returns the display names of all supported languages
func (s *Service) Languages() []string {
	return models.LanguageDisplayNames()
}

// QuizLanguages returns the display names of the languages the owner has phrases in
func (s *Service) QuizLanguages(ctx context.Context, owner uuid.UUID) ([]string, error) {
	languages, err := s.store.DistinctLanguages(ctx, owner)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(languages))
	for _, lang := range languages {
		names = append(names, lang.Display())
	}
	sort.Strings(names)
	return names, nil
}

// Tags returns the tag vocabulary available to the owner
func (s *Service) Tags(ctx context.Context, owner uuid.UUID) ([]string, error) {
	return s.tags.ListTags(ctx, owner)
}

// SynthesizeOriginal returns spoken audio of the phrase text
func (s *Service) SynthesizeOriginal(ctx context.Context, owner, externalID uuid.UUID) ([]byte, error) {
	p, err := s.store.FindByExternalID(ctx, externalID, owner)
	if err != nil {
		return nil, err
	}
	return s.synthesize(ctx, p.OriginalPhrase, p.OriginalLanguage)
}

// SynthesizeMeaning returns spoken audio of the phrase meaning
func (s *Service) SynthesizeMeaning(ctx context.Context, owner, externalID uuid.UUID) ([]byte, error) {
	p, err := s.store.FindByExternalID(ctx, externalID, owner)
	if err != nil {
		return nil, err
	}
	return s.synthesize(ctx, p.Meaning, p.MeaningLanguage)
}

func (s *Service) synthesize(ctx context.Context, text string, lang models.Language) ([]byte, error) {
	if s.synthesizer == nil {
		return nil, fmt.Errorf("%w: no synthesizer configured", models.ErrSpeechUnavailable)
	}
	audio, err := s.synthesizer.Synthesize(ctx, text, lang.Code())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSpeechUnavailable, err)
	}
	return audio, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// validate checks the input before any storage access and converts language codes
func validate(input models.PhraseInput) (models.Phrase, error) {
	var problems []string
	if strings.TrimSpace(input.OriginalPhrase) == "" {
		problems = append(problems, "original phrase must not be blank")
	}
	if strings.TrimSpace(input.Meaning) == "" {
		problems = append(problems, "meaning must not be blank")
	}
	if strings.TrimSpace(input.OriginalLanguage) == "" {
		problems = append(problems, "original language is required")
	}
	if strings.TrimSpace(input.MeaningLanguage) == "" {
		problems = append(problems, "meaning language is required")
	}
	if len(problems) > 0 {
		return models.Phrase{}, fmt.Errorf("%w: %s", models.ErrValidationFailed, strings.Join(problems, "; "))
	}

	original, err := models.ParseLanguage(input.OriginalLanguage)
	if err != nil {
		return models.Phrase{}, err
	}
	meaning, err := models.ParseLanguage(input.MeaningLanguage)
	if err != nil {
		return models.Phrase{}, err
	}

	return models.Phrase{
		OriginalPhrase:   strings.TrimSpace(input.OriginalPhrase),
		OriginalLanguage: original,
		Meaning:          strings.TrimSpace(input.Meaning),
		MeaningLanguage:  meaning,
		Notes:            strings.TrimSpace(input.Notes),
	}, nil
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.TagName
	}
	return names
}

func tagIDs(tags []models.Tag) []int64 {
	ids := make([]int64, len(tags))
	for i, tag := range tags {
		ids[i] = tag.ID
	}
	return ids
}
