package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/phrasebot/internal/database"
	"github.com/example/phrasebot/internal/identity"
	"github.com/example/phrasebot/internal/phrase"
	"github.com/example/phrasebot/internal/progress"
	"github.com/example/phrasebot/internal/tags"
	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
)

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	return []byte("ID3" + languageCode), nil
}

type testServer struct {
	handler http.Handler
	owner   uuid.UUID
	token   string
}

func setupServer(t *testing.T, opts ...phrase.Option) *testServer {
	t.Helper()
	db, err := database.Connect(context.Background(), database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	service := phrase.NewService(
		database.NewPhraseRepository(db),
		tags.NewResolver(database.NewTagRepository(db)),
		opts...)
	aggregator := progress.NewAggregator(database.NewProgressRepository(db))

	resolver := identity.NewJWTResolver("test-secret")
	owner := uuid.New()
	token, err := resolver.IssueToken(owner, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	return &testServer{
		handler: NewRouter(NewHandler(service, aggregator), resolver),
		owner:   owner,
		token:   token,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func (s *testServer) create(t *testing.T, text string, tagNames ...string) phraseView {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/phrase/add-phrase", models.PhraseInput{
		OriginalPhrase:   text,
		OriginalLanguage: "es",
		Meaning:          "meaning of " + text,
		MeaningLanguage:  "en",
		Tags:             tagNames,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var view phraseView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("Failed to decode phrase: %v", err)
	}
	return view
}

func TestCreateAndGetPhrase(t *testing.T) {
	s := setupServer(t)
	created := s.create(t, "la mesa", "Noun", "furniture")

	if created.OriginalLanguage != "es" || created.Status != "In Progress" {
		t.Errorf("unexpected phrase: %+v", created)
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/phrase/phrase-details?phrase-id="+created.ExternalID.String(), nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got phraseView
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("Failed to decode phrase: %v", err)
	}
	if got.ExternalID != created.ExternalID || len(got.Tags) != 2 {
		t.Errorf("unexpected phrase details: %+v", got)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	s := setupServer(t)
	s.create(t, "hola")

	tests := []struct {
		name   string
		method string
		target string
		body   interface{}
		want   int
	}{
		{"duplicate", http.MethodPost, "/api/v1/phrase/add-phrase",
			models.PhraseInput{OriginalPhrase: "hola", OriginalLanguage: "es", Meaning: "hi", MeaningLanguage: "en"},
			http.StatusConflict},
		{"blank phrase", http.MethodPost, "/api/v1/phrase/add-phrase",
			models.PhraseInput{OriginalLanguage: "es", Meaning: "hi", MeaningLanguage: "en"},
			http.StatusBadRequest},
		{"unknown language", http.MethodPost, "/api/v1/phrase/add-phrase",
			models.PhraseInput{OriginalPhrase: "x", OriginalLanguage: "xx-YY", Meaning: "x", MeaningLanguage: "en"},
			http.StatusBadRequest},
		{"unknown status filter", http.MethodGet, "/api/v1/phrase/phrases?status=DONE", nil, http.StatusBadRequest},
		{"missing phrase", http.MethodGet, "/api/v1/phrase/phrase-details?phrase-id=" + uuid.NewString(), nil, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/v1/phrase/phrase-details?phrase-id=42", nil, http.StatusBadRequest},
		{"pronunciation of missing phrase", http.MethodPost, "/api/v1/phrase/pronunciation/original?phrase-id=" + uuid.NewString(), nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if env.Success || env.StatusCode != tt.want {
				t.Errorf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestMissingIdentity(t *testing.T) {
	s := setupServer(t)
	s.token = ""

	rec, _ := s.do(t, http.MethodGet, "/api/v1/phrase/phrases", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestQuizResultUpdatesProgress(t *testing.T) {
	s := setupServer(t)
	learned := s.create(t, "gracias")
	other := s.create(t, "perro")

	results := map[uuid.UUID]models.QuizResult{
		learned.ExternalID: {ConsecutiveCorrectAmount: 11},
		other.ExternalID:   {ConsecutiveCorrectAmount: 3, AnsweredWrongAtLeastOnce: true},
	}
	rec, _ := s.do(t, http.MethodPut, "/api/v1/phrase/quiz-result", results)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/phrase/phrases?status=LEARNED&langCode=es", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var views []phraseView
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("Failed to decode phrases: %v", err)
	}
	if len(views) != 1 || views[0].ExternalID != learned.ExternalID {
		t.Errorf("expected only the learned phrase, got %+v", views)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/phrase/progress", nil)
	var snapshot models.Snapshot
	if err := json.Unmarshal(env.Data, &snapshot); err != nil {
		t.Fatalf("Failed to decode progress: %v", err)
	}
	for _, window := range models.Windows {
		if snapshot[window] != (models.Progress{Learned: 1, Added: 2}) {
			t.Errorf("%s: unexpected progress %+v", window, snapshot[window])
		}
	}
}

func TestQuizResultUnknownPhraseChangesNothing(t *testing.T) {
	s := setupServer(t)
	p := s.create(t, "gato")

	results := map[uuid.UUID]models.QuizResult{
		p.ExternalID: {ConsecutiveCorrectAmount: 20},
		uuid.New():   {ConsecutiveCorrectAmount: 1},
	}
	rec, _ := s.do(t, http.MethodPut, "/api/v1/phrase/quiz-result", results)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	_, env := s.do(t, http.MethodGet, "/api/v1/phrase/phrase-details?phrase-id="+p.ExternalID.String(), nil)
	var got phraseView
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("Failed to decode phrase: %v", err)
	}
	if got.ConsecutiveCorrectAnswerAmount != 0 {
		t.Errorf("expected untouched streak, got %d", got.ConsecutiveCorrectAnswerAmount)
	}
}

func TestUpdateAndDeletePhrase(t *testing.T) {
	s := setupServer(t)
	p := s.create(t, "casa", "noun")

	rec, env := s.do(t, http.MethodPut, "/api/v1/phrase/update-phrase?phrase-id="+p.ExternalID.String(), models.PhraseInput{
		OriginalPhrase:   "la casa",
		OriginalLanguage: "es",
		Meaning:          "the house",
		MeaningLanguage:  "en",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated phraseView
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("Failed to decode phrase: %v", err)
	}
	if updated.OriginalPhrase != "la casa" || len(updated.Tags) != 0 {
		t.Errorf("unexpected update result: %+v", updated)
	}

	target := "/api/v1/phrase/delete-phrase?phrase-id=" + p.ExternalID.String()
	if rec, _ := s.do(t, http.MethodDelete, target, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodDelete, target, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestDeleteAllUserPhrases(t *testing.T) {
	s := setupServer(t)
	s.create(t, "uno", "number")
	s.create(t, "dos")

	rec, _ := s.do(t, http.MethodDelete, "/api/v1/phrase/delete-all-user-phrases?external-user-id="+s.owner.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	_, env := s.do(t, http.MethodGet, "/api/v1/phrase/last-ten-phrases", nil)
	var views []phraseView
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("Failed to decode phrases: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("expected no phrases, got %d", len(views))
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/phrase/tags", nil)
	var tagNames []string
	if err := json.Unmarshal(env.Data, &tagNames); err != nil {
		t.Fatalf("Failed to decode tags: %v", err)
	}
	if len(tagNames) != len(models.DefaultTags) {
		t.Errorf("expected only default tags, got %v", tagNames)
	}
}

func TestLanguagesAndQuizLanguages(t *testing.T) {
	s := setupServer(t)
	s.create(t, "adios")

	_, env := s.do(t, http.MethodGet, "/api/v1/phrase/languages", nil)
	var all []string
	if err := json.Unmarshal(env.Data, &all); err != nil {
		t.Fatalf("Failed to decode languages: %v", err)
	}
	if len(all) != len(models.LanguageDisplayNames()) {
		t.Errorf("expected every language, got %d", len(all))
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/phrase/quiz-languages", nil)
	var quiz []string
	if err := json.Unmarshal(env.Data, &quiz); err != nil {
		t.Fatalf("Failed to decode quiz languages: %v", err)
	}
	if len(quiz) != 2 {
		t.Errorf("expected Spanish and English, got %v", quiz)
	}
}

func TestPronunciation(t *testing.T) {
	s := setupServer(t)
	p := s.create(t, "buenos dias")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/phrase/pronunciation/original?phrase-id="+p.ExternalID.String(), nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 without a synthesizer, got %d", rec.Code)
	}

	s = setupServer(t, phrase.WithSynthesizer(stubSynthesizer{}))
	p = s.create(t, "buenos dias")
	rec, env := s.do(t, http.MethodPost, "/api/v1/phrase/pronunciation/meaning?phrase-id="+p.ExternalID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var audio []byte
	if err := json.Unmarshal(env.Data, &audio); err != nil {
		t.Fatalf("Failed to decode audio: %v", err)
	}
	if string(audio) != "ID3en" {
		t.Errorf("unexpected audio %q", audio)
	}
}

func TestCorsPreflight(t *testing.T) {
	s := setupServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/phrase/add-phrase", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("unexpected CORS header %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
