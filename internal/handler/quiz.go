package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/scoring"
	"github.com/pavelanni/quizforge/internal/store"
)

type createQuizRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	QuestionIDs []int64 `json:"question_ids"`
}

type quizWithQuestions struct {
	model.Quiz
	Questions []model.Question `json:"questions"`
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createQuizRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "InvalidRequestBody"))
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "QuizTitleRequired"))
		return
	}
	if len(req.QuestionIDs) == 0 {
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "QuizQuestionsRequired"))
		return
	}
	for _, id := range req.QuestionIDs {
		if _, err := h.store.GetQuestion(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusBadRequest, i18n.T(ctx, "QuestionNotFound"))
				return
			}
			respondErr(w, r, err, "QuestionNotFound")
			return
		}
	}

	qz, err := h.store.CreateQuiz(model.Quiz{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		QuestionIDs: req.QuestionIDs,
	})
	if err != nil {
		respondErr(w, r, err, "QuizNotFound")
		return
	}
	respond(w, http.StatusCreated, qz)
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.store.ListQuizzes()
	if err != nil {
		respondErr(w, r, err, "QuizNotFound")
		return
	}
	respond(w, http.StatusOK, quizzes)
}

// loadQuiz fetches the {id} quiz with its current questions.
func (h *Handler) loadQuiz(w http.ResponseWriter, r *http.Request) (model.Quiz, []model.Question, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return model.Quiz{}, nil, false
	}
	qz, err := h.store.GetQuiz(id)
	if err != nil {
		respondErr(w, r, err, "QuizNotFound")
		return model.Quiz{}, nil, false
	}
	questions, err := h.store.GetQuizQuestions(qz)
	if err != nil {
		respondErr(w, r, err, "QuizNotFound")
		return model.Quiz{}, nil, false
	}
	return qz, questions, true
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	qz, questions, ok := h.loadQuiz(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, quizWithQuestions{Quiz: qz, Questions: questions})
}

func (h *Handler) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteQuiz(id); err != nil {
		respondErr(w, r, err, "QuizNotFound")
		return
	}
	respond(w, http.StatusOK, map[string]int64{"id": id})
}

// takeAnswer and takeQuestion hide correctness and points from quiz takers.
type takeAnswer struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type takeQuestion struct {
	ID      int64        `json:"id"`
	Text    string       `json:"question_text"`
	Answers []takeAnswer `json:"answers"`
}

type takeQuiz struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []takeQuestion `json:"questions"`
}

func (h *Handler) handleTakeQuiz(w http.ResponseWriter, r *http.Request) {
	qz, questions, ok := h.loadQuiz(w, r)
	if !ok {
		return
	}
	out := takeQuiz{ID: qz.ID, Title: qz.Title, Description: qz.Description, Questions: make([]takeQuestion, 0, len(questions))}
	for _, q := range questions {
		tq := takeQuestion{ID: q.ID, Text: q.Text, Answers: make([]takeAnswer, 0, len(q.Answers))}
		for _, a := range q.Answers {
			tq.Answers = append(tq.Answers, takeAnswer{ID: a.ID, Text: a.Text})
		}
		out.Questions = append(out.Questions, tq)
	}
	respond(w, http.StatusOK, out)
}

type submitQuizRequest struct {
	SelectedAnswers map[int64][]int `json:"selected_answers"`
}

func (h *Handler) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	qz, questions, ok := h.loadQuiz(w, r)
	if !ok {
		return
	}
	var req submitQuizRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidRequestBody"))
		return
	}

	scored := scoring.Score(questions, req.SelectedAnswers)
	attempt, err := h.store.CreateAttempt(qz.ID, scored)
	if err != nil {
		respondErr(w, r, fmt.Errorf("save attempt: %w", err), "QuizNotFound")
		return
	}
	respond(w, http.StatusCreated, model.NewAttemptResult(attempt, qz, questions))
}

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.store.GetQuiz(id); err != nil {
		respondErr(w, r, err, "QuizNotFound")
		return
	}
	attempts, err := h.store.ListAttemptsByQuiz(id)
	if err != nil {
		respondErr(w, r, err, "QuizNotFound")
		return
	}
	respond(w, http.StatusOK, attempts)
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.attemptResult(id)
	if err != nil {
		respondErr(w, r, err, "AttemptNotFound")
		return
	}
	respond(w, http.StatusOK, result)
}

// attemptResult reports an attempt against its quiz's current questions.
func (h *Handler) attemptResult(id int64) (model.AttemptResult, error) {
	attempt, err := h.store.GetAttempt(id)
	if err != nil {
		return model.AttemptResult{}, err
	}
	qz, err := h.store.GetQuiz(attempt.QuizID)
	if err != nil {
		return model.AttemptResult{}, fmt.Errorf("quiz of attempt %d: %w", id, err)
	}
	questions, err := h.store.GetQuizQuestions(qz)
	if err != nil {
		return model.AttemptResult{}, fmt.Errorf("questions of quiz %d: %w", qz.ID, err)
	}
	return model.NewAttemptResult(attempt, qz, questions), nil
}
