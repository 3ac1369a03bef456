package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pavelanni/quizforge/internal/extract"
	"github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/storage"
)

type createSourceRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (h *Handler) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		h.handleUploadSource(w, r)
		return
	}

	var req createSourceRequest
	if mediaType == "application/json" {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, i18n.T(ctx, "InvalidRequestBody"))
			return
		}
	} else {
		req.Type, req.URL = r.FormValue("type"), r.FormValue("url")
	}

	kind := model.SourceKind(strings.ToLower(strings.TrimSpace(req.Type)))
	switch {
	case kind == model.SourceURL:
		h.createURLSource(w, r, req.URL)
	case kind.Valid():
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "FileRequired", map[string]any{"Type": kind}))
	default:
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "UnsupportedSourceType", map[string]any{"Type": req.Type}))
	}
}

// createURLSource stores a URL source. The page is fetched later, when a
// topic is generated from it.
func (h *Handler) createURLSource(w http.ResponseWriter, r *http.Request, raw string) {
	ctx := r.Context()
	if strings.TrimSpace(raw) == "" {
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "URLRequired"))
		return
	}
	normalized, err := extract.NormalizeURL(raw)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	host := normalized
	if u, err := url.Parse(normalized); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	src, err := h.store.CreateSource(model.Source{
		Kind:     model.SourceURL,
		Title:    host,
		Content:  normalized,
		Metadata: map[string]any{"url": normalized, "is_url": true},
	})
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	respond(w, http.StatusCreated, src)
}

// handleUploadSource accepts a multipart upload, archives it when an
// archive is configured, and stores the extracted text.
func (h *Handler) handleUploadSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := h.config.MaxUploadSize
	tooLarge := func() {
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "FileTooLarge", map[string]any{"Limit": limit}))
	}

	// Leave room for the other form fields and multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge()
			return
		}
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "InvalidRequestBody"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	typ := strings.ToLower(strings.TrimSpace(r.FormValue("type")))
	kind := model.SourceKind(typ)
	if kind == model.SourceURL {
		h.createURLSource(w, r, r.FormValue("url"))
		return
	}
	if !kind.Valid() {
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "UnsupportedSourceType", map[string]any{"Type": typ}))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "FileRequired", map[string]any{"Type": kind}))
		return
	}
	defer file.Close()

	fileKind, ok := extract.KindForFilename(header.Filename)
	if !ok {
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "FileTypeNotAllowed",
			map[string]any{"Allowed": strings.Join(extract.AllowedExtensions, ", ")}))
		return
	}
	if fileKind != kind {
		respondError(w, http.StatusBadRequest, i18n.Td(ctx, "FileTypeMismatch", map[string]any{"Type": kind}))
		return
	}
	if header.Size > limit {
		tooLarge()
		return
	}

	var archiveLoc string
	if h.archive != nil {
		key := storage.UploadKey(h.now(), uuid.NewString()+"_"+header.Filename)
		archiveLoc, err = h.archive.Put(ctx, key, file)
		if err != nil {
			respondErr(w, r, fmt.Errorf("archive upload: %w", err), "SourceNotFound")
			return
		}
		if _, err := file.Seek(0, 0); err != nil {
			respondErr(w, r, fmt.Errorf("rewind upload: %w", err), "SourceNotFound")
			return
		}
		slog.Info("archived upload", "filename", header.Filename, "location", archiveLoc)
	}

	doc, err := h.extractor.ExtractUpload(ctx, kind, header.Filename, file)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	doc.Metadata["original_filename"] = header.Filename
	if archiveLoc != "" {
		doc.Metadata["archive_key"] = archiveLoc
	}

	src, err := h.store.CreateSource(model.Source{
		Kind:     kind,
		Title:    header.Filename,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	})
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	respond(w, http.StatusCreated, src)
}

func (h *Handler) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources()
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	respond(w, http.StatusOK, sources)
}

func (h *Handler) handleGetSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	src, err := h.store.GetSource(id)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	respond(w, http.StatusOK, src)
}

func (h *Handler) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteSource(id); err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	respond(w, http.StatusOK, map[string]int64{"id": id})
}

type generateTopicRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	NumQuestions int    `json:"num_questions"`
}

type topicWithQuestions struct {
	model.Topic
	Questions []model.Question `json:"questions"`
}

// handleGenerateTopic creates a topic from a source and fills it with
// generated questions.
func (h *Handler) handleGenerateTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req generateTopicRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "InvalidRequestBody"))
		return
	}

	src, err := h.store.GetSource(id)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}

	content := src.Content
	if src.IsURL() {
		doc, err := h.extractor.Extract(ctx, model.SourceURL, src.Content)
		if err != nil {
			respondErr(w, r, err, "SourceNotFound")
			return
		}
		content = strings.TrimSpace(doc.Content)
		if n := utf8.RuneCountInString(content); n < minURLContent {
			respondError(w, http.StatusBadRequest, i18n.Td(ctx, "URLContentTooShort", map[string]any{"Length": n}))
			return
		}
	}

	draft := model.TopicDraft{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
	}
	if draft.Title == "" {
		generated := h.generator.GenerateTopic(ctx, content)
		draft.Title = generated.Title
		if draft.Description == "" {
			draft.Description = generated.Description
		}
		// Space out the two LLM calls.
		if err := h.sleep(ctx, h.config.PacingDelay); err != nil {
			respondErr(w, r, err, "SourceNotFound")
			return
		}
	}

	existing, err := h.store.ListTopicsBySource(src.ID)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	title := uniqueTopicTitle(draft.Title, existing)

	n := req.NumQuestions
	if n <= 0 {
		n = h.config.NumQuestions
	}
	drafts, err := h.generator.GenerateQuestions(ctx, content, n)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}

	topic, questions, err := h.store.CreateTopicWithQuestions(
		model.Topic{SourceID: src.ID, Title: title, Description: draft.Description}, drafts)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	slog.Info("generated topic", "source", src.ID, "topic", topic.ID, "title", topic.Title, "questions", len(questions))

	respondMessage(w, http.StatusCreated,
		topicWithQuestions{Topic: topic, Questions: questions},
		i18n.Tp(ctx, "QuestionsGenerated", len(questions)))
}

// uniqueTopicTitle returns base, or base followed by the smallest positive
// number that makes it unique among existing titles, ignoring case.
func uniqueTopicTitle(base string, existing []model.Topic) string {
	taken := make(map[string]bool, len(existing))
	for _, t := range existing {
		taken[strings.ToLower(t.Title)] = true
	}
	if !taken[strings.ToLower(base)] {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s %d", base, i)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.store.GetSource(id); err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	topics, err := h.store.ListTopicsBySource(id)
	if err != nil {
		respondErr(w, r, err, "SourceNotFound")
		return
	}
	out := make([]topicWithQuestions, 0, len(topics))
	for _, t := range topics {
		questions, err := h.store.ListQuestionsByTopic(t.ID)
		if err != nil {
			respondErr(w, r, err, "TopicNotFound")
			return
		}
		out = append(out, topicWithQuestions{Topic: t, Questions: questions})
	}
	respond(w, http.StatusOK, out)
}

type updateTopicRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *Handler) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateTopicRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidRequestBody"))
		return
	}
	topic, err := h.store.UpdateTopic(id, req.Title, req.Description)
	if err != nil {
		respondErr(w, r, err, "TopicNotFound")
		return
	}
	respond(w, http.StatusOK, topic)
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := h.store.GetQuestion(id)
	if err != nil {
		respondErr(w, r, err, "QuestionNotFound")
		return
	}
	respond(w, http.StatusOK, q)
}

func (h *Handler) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteTopic(id); err != nil {
		respondErr(w, r, err, "TopicNotFound")
		return
	}
	respond(w, http.StatusOK, map[string]int64{"id": id})
}

type createQuestionRequest struct {
	Text    string         `json:"question_text"`
	Answers []model.Answer `json:"answers"`
}

// handleCreateQuestion adds a hand-written question to a topic. Answer ids
// are assigned by position.
func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "InvalidRequestBody"))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || len(req.Answers) == 0 {
		respondError(w, http.StatusBadRequest, i18n.T(ctx, "QuestionInvalid"))
		return
	}

	q, err := h.store.CreateQuestion(model.Question{
		TopicID: id,
		Text:    text,
		Answers: model.NumberAnswers(req.Answers),
	})
	if err != nil {
		respondErr(w, r, err, "TopicNotFound")
		return
	}
	respond(w, http.StatusCreated, q)
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions()
	if err != nil {
		respondErr(w, r, err, "QuestionNotFound")
		return
	}
	respond(w, http.StatusOK, questions)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteQuestion(id); err != nil {
		respondErr(w, r, err, "QuestionNotFound")
		return
	}
	respond(w, http.StatusOK, map[string]int64{"id": id})
}
