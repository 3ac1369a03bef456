package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizforge/internal/handler/views"
	"github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/scoring"
	"github.com/pavelanni/quizforge/internal/store"
)

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// pageError answers a page request with a plain-text error.
func pageError(w http.ResponseWriter, r *http.Request, err error, notFoundID string) {
	ctx := r.Context()
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, i18n.T(ctx, notFoundID), http.StatusNotFound)
		return
	}
	slog.Error("page failed", "path", r.URL.Path, "error", err)
	http.Error(w, i18n.T(ctx, "InternalError"), http.StatusInternalServerError)
}

func pageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, i18n.T(r.Context(), "InvalidID"), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources()
	if err != nil {
		pageError(w, r, err, "SourceNotFound")
		return
	}
	quizzes, err := h.store.ListQuizzes()
	if err != nil {
		pageError(w, r, err, "QuizNotFound")
		return
	}
	questions, err := h.store.QuestionCount()
	if err != nil {
		pageError(w, r, err, "QuestionNotFound")
		return
	}
	render(w, r, views.IndexPage(views.IndexStats{
		Sources:   len(sources),
		Quizzes:   len(quizzes),
		Questions: questions,
	}))
}

func (h *Handler) handleSourcesPage(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources()
	if err != nil {
		pageError(w, r, err, "SourceNotFound")
		return
	}
	render(w, r, views.SourcesPage(sources))
}

func (h *Handler) handleQuizzesPage(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.store.ListQuizzes()
	if err != nil {
		pageError(w, r, err, "QuizNotFound")
		return
	}
	render(w, r, views.QuizzesPage(quizzes))
}

func (h *Handler) quizPage(w http.ResponseWriter, r *http.Request) (model.Quiz, []model.Question, bool) {
	id, ok := pageID(w, r)
	if !ok {
		return model.Quiz{}, nil, false
	}
	qz, err := h.store.GetQuiz(id)
	if err != nil {
		pageError(w, r, err, "QuizNotFound")
		return model.Quiz{}, nil, false
	}
	questions, err := h.store.GetQuizQuestions(qz)
	if err != nil {
		pageError(w, r, err, "QuizNotFound")
		return model.Quiz{}, nil, false
	}
	return qz, questions, true
}

func (h *Handler) handleTakeQuizPage(w http.ResponseWriter, r *http.Request) {
	qz, questions, ok := h.quizPage(w, r)
	if !ok {
		return
	}
	render(w, r, views.TakeQuizPage(qz, questions))
}

// handleSubmitQuizPage scores the take form and redirects to the results page.
func (h *Handler) handleSubmitQuizPage(w http.ResponseWriter, r *http.Request) {
	qz, questions, ok := h.quizPage(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, i18n.T(r.Context(), "InvalidRequestBody"), http.StatusBadRequest)
		return
	}
	selected, err := formSelections(r, questions)
	if err != nil {
		slog.Warn("bad quiz form", "quiz_id", qz.ID, "error", err)
		http.Error(w, i18n.T(r.Context(), "InvalidRequestBody"), http.StatusBadRequest)
		return
	}

	attempt, err := h.store.CreateAttempt(qz.ID, scoring.Score(questions, selected))
	if err != nil {
		pageError(w, r, fmt.Errorf("save attempt: %w", err), "QuizNotFound")
		return
	}
	slog.Info("quiz submitted", "quiz_id", qz.ID, "attempt_id", attempt.ID, "score", attempt.TotalScore)
	http.Redirect(w, r, views.AttemptPath(attempt.ID), http.StatusSeeOther)
}

// formSelections collects the checked answer ids of each question.
func formSelections(r *http.Request, questions []model.Question) (map[int64][]int, error) {
	selected := make(map[int64][]int, len(questions))
	for _, q := range questions {
		values := r.PostForm[views.AnswerField(q.ID)]
		if len(values) == 0 {
			continue
		}
		ids := make([]int, 0, len(values))
		for _, v := range values {
			id, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("question %d: answer %q: %w", q.ID, v, err)
			}
			ids = append(ids, id)
		}
		selected[q.ID] = ids
	}
	return selected, nil
}

func (h *Handler) handleResultsPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	result, err := h.attemptResult(id)
	if err != nil {
		pageError(w, r, err, "AttemptNotFound")
		return
	}
	render(w, r, views.ResultsPage(result))
}
