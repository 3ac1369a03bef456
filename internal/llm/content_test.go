package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSelectContent_ShortUnchanged(t *testing.T) {
	text := "A short document about photosynthesis."
	assert.Equal(t, text, SelectContent(text, 12000))
	assert.Equal(t, text, SelectContent(text, utf8.RuneCountInString(text)))
}

func TestSelectContent_LongDocument(t *testing.T) {
	head := "INTRODUCTION " + strings.Repeat("a", 5000)
	middle := strings.Repeat("b", 5000) + " MIDPOINT " + strings.Repeat("c", 5000)
	tail := strings.Repeat("d", 5000) + " CONCLUSION"
	text := head + middle + tail

	got := SelectContent(text, 4000)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), 4000)
	assert.True(t, strings.HasPrefix(got, "INTRODUCTION"))
	assert.True(t, strings.HasSuffix(got, "CONCLUSION"))
	assert.Contains(t, got, "MIDPOINT")
	assert.Equal(t, 2, strings.Count(got, ContinuationMarker))
}

func TestSelectContent_Proportions(t *testing.T) {
	text := strings.Repeat("x", 50000)
	got := SelectContent(text, 10000)
	parts := strings.Split(got, ContinuationMarker)
	if assert.Len(t, parts, 3) {
		head, middle, tail := budget(10000)
		assert.Len(t, parts[0], head)
		assert.Len(t, parts[1], middle)
		assert.Len(t, parts[2], tail)
		assert.InDelta(t, 2.0, float64(len(parts[0]))/float64(len(parts[1])), 0.01)
	}
}

func TestSelectContent_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("фотосинтез ", 2000)
	got := SelectContent(text, 1000)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 1000)
}

func TestSelectContent_TinyBudget(t *testing.T) {
	text := strings.Repeat("z", 500)
	got := SelectContent(text, 40)
	assert.Equal(t, strings.Repeat("z", 40), got)
	assert.NotContains(t, got, "continues")

	assert.Equal(t, "", SelectContent(text, 0))
}

func TestSelectContent_JustOverBudget(t *testing.T) {
	text := strings.Repeat("q", 12001)
	got := SelectContent(text, 12000)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 12000)
	assert.Equal(t, 2, strings.Count(got, ContinuationMarker))
}
