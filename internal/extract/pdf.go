package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the text layer of a PDF file.
type PDFExtractor struct{}

// Extract joins the text of every page with blank lines.
func (PDFExtractor) Extract(_ context.Context, path string) (doc *Document, err error) {
	name := filepath.Base(path)
	// The PDF parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &ExtractionError{Kind: ErrUnreadable, Source: name, Msg: "failed to extract PDF", Err: fmt.Errorf("%v", r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Kind: ErrUnreadable, Source: name, Msg: "failed to extract PDF", Err: err}
	}
	defer f.Close()

	pages := r.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{
				Kind:   ErrUnreadable,
				Source: name,
				Msg:    fmt.Sprintf("failed to extract PDF page %d", i),
				Err:    err,
			}
		}
		parts = append(parts, text)
	}

	content := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if utf8.RuneCountInString(content) < MinContentLength {
		return nil, &ExtractionError{
			Kind:   ErrNoText,
			Source: name,
			Msg:    "PDF contains no extractable text; scanned documents should be uploaded as images",
		}
	}
	return &Document{
		Title:   name,
		Content: content,
		Metadata: map[string]any{
			"pages":    pages,
			"filename": name,
		},
	}, nil
}
