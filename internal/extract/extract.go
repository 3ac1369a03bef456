// Package extract turns URLs and uploaded files into plain text documents.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pavelanni/quizforge/internal/model"
)

const (
	// MinContentLength is the shortest text a page or document extraction may return.
	MinContentLength = 50
	// MinOCRLength is the shortest text OCR may return.
	MinOCRLength = 10
)

// Document is the result of one extraction.
type Document struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Extractor extracts a document from a location: a URL for web sources, a
// local file path for file sources.
type Extractor interface {
	Extract(ctx context.Context, location string) (*Document, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, location string) (*Document, error)

// Extract calls f(ctx, location).
func (f ExtractorFunc) Extract(ctx context.Context, location string) (*Document, error) {
	return f(ctx, location)
}

// Registry maps source kinds to extractors.
type Registry struct {
	extractors map[model.SourceKind]Extractor
	uploadDir  string
}

// NewRegistry creates an empty registry. Uploads are staged in uploadDir,
// or the system temp directory when it is empty.
func NewRegistry(uploadDir string) *Registry {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &Registry{
		extractors: make(map[model.SourceKind]Extractor),
		uploadDir:  uploadDir,
	}
}

// Register sets the extractor for kind, replacing any previous one.
func (r *Registry) Register(kind model.SourceKind, e Extractor) {
	r.extractors[kind] = e
}

// Lookup returns the extractor for kind.
func (r *Registry) Lookup(kind model.SourceKind) (Extractor, bool) {
	e, ok := r.extractors[kind]
	return e, ok
}

// Extract runs the extractor registered for kind against location.
func (r *Registry) Extract(ctx context.Context, kind model.SourceKind, location string) (*Document, error) {
	e, ok := r.Lookup(kind)
	if !ok {
		return nil, &ExtractionError{
			Kind:   ErrUnsupported,
			Source: string(kind),
			Msg:    fmt.Sprintf("no extractor registered for source type %q", kind),
		}
	}
	return e.Extract(ctx, location)
}

// ExtractUpload stages an uploaded file in the upload directory, extracts
// it, and removes the staged copy whether or not extraction succeeded.
func (r *Registry) ExtractUpload(ctx context.Context, kind model.SourceKind, filename string, src io.Reader) (*Document, error) {
	path, err := StageUpload(r.uploadDir, filename, src)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("remove staged upload", "path", path, "error", err)
		}
	}()

	doc, err := r.Extract(ctx, kind, path)
	if err != nil {
		return nil, err
	}
	// Titles come from the staged name; report the name the user uploaded.
	doc.Title = filename
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["filename"] = filename
	doc.Metadata["original_filename"] = filename
	return doc, nil
}

// KindForFilename maps an upload's extension to a source kind.
func KindForFilename(name string) (model.SourceKind, bool) {
	ext := strings.ToLower(name)
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i+1:]
	} else {
		return "", false
	}
	switch ext {
	case "pdf":
		return model.SourcePDF, true
	case "doc", "docx":
		return model.SourceWord, true
	case "png", "jpg", "jpeg", "gif":
		return model.SourceImage, true
	}
	return "", false
}

// AllowedExtensions lists the upload extensions KindForFilename accepts.
var AllowedExtensions = []string{"pdf", "doc", "docx", "png", "jpg", "jpeg", "gif"}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Config configures the default extractors.
type Config struct {
	UploadDir string
	Tiers     TierConfig
	OCRBinary string
	OCRLang   string
}

// NewDefaultRegistry registers the URL, PDF, Word and image extractors.
func NewDefaultRegistry(cfg Config) *Registry {
	r := NewRegistry(cfg.UploadDir)
	r.Register(model.SourceURL, NewURLExtractor(DefaultTiers(cfg.Tiers)...))
	r.Register(model.SourcePDF, PDFExtractor{})
	r.Register(model.SourceWord, WordExtractor{})
	r.Register(model.SourceImage, NewImageExtractor(cfg.OCRBinary, cfg.OCRLang))
	return r
}
