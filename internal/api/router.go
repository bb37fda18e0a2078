package api

import (
	"net/http"

	"github.com/example/phrasebot/internal/identity"
	"github.com/gorilla/mux"
)

// NewRouter wires the phrase endpoints under /api/v1/phrase
func NewRouter(h *Handler, resolver identity.Resolver) http.Handler {
	r := mux.NewRouter()
	r.Use(RecoverMiddleware, LoggingMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithData(w, http.StatusOK, "ok", nil)
	}).Methods("GET")

	s := r.PathPrefix("/api/v1/phrase").Subrouter()
	s.Use(IdentityMiddleware(resolver))

	s.HandleFunc("/add-phrase", h.CreatePhrase).Methods("POST")
	s.HandleFunc("/phrases", h.ListPhrases).Methods("GET")
	s.HandleFunc("/last-ten-phrases", h.ListRecentPhrases).Methods("GET")
	s.HandleFunc("/phrase-details", h.GetPhrase).Methods("GET")
	s.HandleFunc("/languages", h.GetLanguages).Methods("GET")
	s.HandleFunc("/quiz-languages", h.GetQuizLanguages).Methods("GET")
	s.HandleFunc("/tags", h.GetTags).Methods("GET")
	s.HandleFunc("/progress", h.GetProgress).Methods("GET")
	s.HandleFunc("/update-phrase", h.UpdatePhrase).Methods("PUT")
	s.HandleFunc("/quiz-result", h.SubmitQuizResult).Methods("PUT")
	s.HandleFunc("/delete-phrase", h.DeletePhrase).Methods("DELETE")
	s.HandleFunc("/delete-all-user-phrases", h.DeleteAllUserPhrases).Methods("DELETE")
	s.HandleFunc("/pronunciation/original", h.OriginalPronunciation).Methods("POST")
	s.HandleFunc("/pronunciation/meaning", h.MeaningPronunciation).Methods("POST")

	// preflight requests match no route, so CORS wraps the router
	return CorsMiddleware(r)
}
