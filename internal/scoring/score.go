// Package scoring computes quiz attempt scores from selected answers.
package scoring

import (
	"slices"

	"github.com/pavelanni/quizforge/internal/model"
)

// Score scores the selections against the given questions.
//
// A question's score is the sum of the points of its selected answers, floored
// at zero. Selections for questions not in the list are kept in the result but
// not scored, and ids that match no answer contribute nothing. The total is
// summed in question id order so repeated runs give identical results.
func Score(questions []model.Question, selected map[int64][]int) model.ScoredAttempt {
	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	result := model.ScoredAttempt{
		SelectedAnswers: make(map[int64][]int, len(selected)),
		QuestionScores:  make(map[int64]float64, len(selected)),
	}

	ids := make([]int64, 0, len(selected))
	for qid, answerIDs := range selected {
		result.SelectedAnswers[qid] = slices.Clone(answerIDs)
		ids = append(ids, qid)
	}
	slices.Sort(ids)

	for _, qid := range ids {
		q, ok := byID[qid]
		if !ok {
			continue
		}
		s := questionScore(q, selected[qid])
		result.QuestionScores[qid] = s
		result.TotalScore += s
	}
	return result
}

func questionScore(q model.Question, answerIDs []int) float64 {
	points := make(map[int]float64, len(q.Answers))
	for _, a := range q.Answers {
		points[a.ID] = a.Points
	}
	var sum float64
	for _, id := range answerIDs {
		sum += points[id]
	}
	return max(sum, 0)
}
