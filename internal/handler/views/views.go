// Package views renders the HTML pages with templ.
package views

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

//go:generate templ generate

// IndexStats are the counts shown on the home page.
type IndexStats struct {
	Sources   int
	Quizzes   int
	Questions int
}

// AnswerField is the form field that carries the selected answer ids of a question.
func AnswerField(questionID int64) string {
	return "q" + strconv.FormatInt(questionID, 10)
}

// TakePath is the page where a quiz is taken and submitted.
func TakePath(quizID int64) string {
	return fmt.Sprintf("/quizzes/%d/take", quizID)
}

// AttemptPath is the results page of an attempt.
func AttemptPath(attemptID int64) string {
	return fmt.Sprintf("/quiz-attempts/%d", attemptID)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func isSelected(selected []int, id int) bool {
	return slices.Contains(selected, id)
}
