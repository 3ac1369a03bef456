package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "QuizNotFound")
	if got != "Quiz not found." {
		t.Errorf("T(QuizNotFound) = %q, want 'Quiz not found.'", got)
	}

	got = T(ctx, "QuizTitleRequired")
	if got != "Quiz title is required." {
		t.Errorf("T(QuizTitleRequired) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "QuizNotFound")
	if got != "Тест не найден." {
		t.Errorf("T(QuizNotFound) = %q, want 'Тест не найден.'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsGenerated", 1)
	if got1 != "Generated 1 question." {
		t.Errorf("Tp(QuestionsGenerated, 1) = %q, want 'Generated 1 question.'", got1)
	}

	got5 := Tp(ctx, "QuestionsGenerated", 5)
	if got5 != "Generated 5 questions." {
		t.Errorf("Tp(QuestionsGenerated, 5) = %q, want 'Generated 5 questions.'", got5)
	}
}

func TestRussianPlural(t *testing.T) {
	ctx := initLang(t, "ru")

	tests := []struct {
		n    int
		want string
	}{
		{1, "Сгенерирован 1 вопрос."},
		{3, "Сгенерировано 3 вопроса."},
		{5, "Сгенерировано 5 вопросов."},
	}
	for _, tt := range tests {
		if got := Tp(ctx, "QuestionsGenerated", tt.n); got != tt.want {
			t.Errorf("Tp(QuestionsGenerated, %d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "UnsupportedSourceType", map[string]any{"Type": "video"})
	want := `Unsupported source type "video". Use url, pdf, word or image.`
	if got != want {
		t.Errorf("Td(UnsupportedSourceType) = %q, want %q", got, want)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "QuizNotFound")
	}))

	tests := []struct {
		header string
		want   string
	}{
		{"ru-RU,ru;q=0.9,en;q=0.8", "Тест не найден."},
		{"", "Quiz not found."},
		{"de-DE", "Quiz not found."},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Accept-Language", tt.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got != tt.want {
			t.Errorf("Accept-Language %q: got %q, want %q", tt.header, got, tt.want)
		}
	}
}
