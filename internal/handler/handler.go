package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizforge/internal/extract"
	"github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/llm"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/storage"
	"github.com/pavelanni/quizforge/internal/store"
)

// Extractor turns a source location or an uploaded file into text.
type Extractor interface {
	Extract(ctx context.Context, kind model.SourceKind, location string) (*extract.Document, error)
	ExtractUpload(ctx context.Context, kind model.SourceKind, filename string, r io.Reader) (*extract.Document, error)
}

// Generator names topics and writes questions with an LLM.
type Generator interface {
	GenerateTopic(ctx context.Context, content string) model.TopicDraft
	GenerateQuestions(ctx context.Context, content string, n int) ([]model.QuestionDraft, error)
}

// Config holds request-independent settings.
type Config struct {
	NumQuestions  int
	PacingDelay   time.Duration
	MaxUploadSize int64
}

const (
	defaultMaxUploadSize = 10 << 20
	// minURLContent is the shortest re-extracted page worth sending to the LLM.
	minURLContent = 100
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	extractor Extractor
	generator Generator
	archive   storage.BlobStore
	config    Config
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// New creates a new Handler. archive may be nil to skip archiving uploads.
func New(s *store.Store, ex Extractor, gen Generator, archive storage.BlobStore, cfg Config) *Handler {
	if cfg.NumQuestions <= 0 {
		cfg.NumQuestions = llm.DefaultNumQuestions
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	return &Handler{
		store:     s,
		extractor: ex,
		generator: gen,
		archive:   archive,
		config:    cfg,
		sleep:     llm.Sleep,
		now:       time.Now,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Get("/", h.handleIndexPage)
	r.Get("/sources", h.handleSourcesPage)
	r.Get("/quizzes", h.handleQuizzesPage)
	r.Get("/quizzes/{id}/take", h.handleTakeQuizPage)
	r.Post("/quizzes/{id}/take", h.handleSubmitQuizPage)
	r.Get("/quiz-attempts/{id}", h.handleResultsPage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sources", h.handleCreateSource)
		r.Get("/sources", h.handleListSources)
		r.Get("/sources/{id}", h.handleGetSource)
		r.Delete("/sources/{id}", h.handleDeleteSource)
		r.Post("/sources/{id}/generate-topic", h.handleGenerateTopic)
		r.Get("/sources/{id}/topics", h.handleListTopics)
		r.Put("/topics/{id}", h.handleUpdateTopic)
		r.Delete("/topics/{id}", h.handleDeleteTopic)
		r.Post("/topics/{id}/questions", h.handleCreateQuestion)
		r.Get("/questions", h.handleListQuestions)
		r.Get("/questions/{id}", h.handleGetQuestion)
		r.Delete("/questions/{id}", h.handleDeleteQuestion)
		r.Post("/quizzes", h.handleCreateQuiz)
		r.Get("/quizzes", h.handleListQuizzes)
		r.Get("/quizzes/{id}", h.handleGetQuiz)
		r.Delete("/quizzes/{id}", h.handleDeleteQuiz)
		r.Get("/quizzes/{id}/take", h.handleTakeQuiz)
		r.Post("/quizzes/{id}/submit", h.handleSubmitQuiz)
		r.Get("/quizzes/{id}/attempts", h.handleListAttempts)
		r.Get("/quiz-attempts/{id}", h.handleGetAttempt)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: msg})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// respondErr maps err to a status code and a translated message. notFoundID
// names the message used for store.ErrNotFound.
func respondErr(w http.ResponseWriter, r *http.Request, err error, notFoundID string) {
	ctx := r.Context()

	var (
		normErr  *extract.NormalizationError
		extErr   *extract.ExtractionError
		genErr   *llm.GenerationError
		parseErr *llm.ParseError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, i18n.T(ctx, notFoundID))
	case errors.As(err, &normErr):
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "InvalidURL", map[string]any{"Detail": normErr.Error()}))
	case errors.As(err, &extErr):
		slog.Warn("extraction failed", "kind", extErr.Kind, "source", extErr.Source, "error", err)
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "ExtractionFailed", map[string]any{"Detail": extErr.Error()}))
	case errors.As(err, &genErr), errors.As(err, &parseErr):
		slog.Warn("generation failed", "error", err)
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "GenerationFailed", map[string]any{"Detail": err.Error()}))
	case errors.Is(err, context.Canceled):
		slog.Info("request cancelled", "path", r.URL.Path)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(ctx, "InternalError"))
	}
}

// pathID parses the {id} URL parameter, answering 400 when it is invalid.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidID"))
		return 0, false
	}
	return id, true
}

// decodeBody decodes an optional JSON body into v. An empty body is not an error.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
