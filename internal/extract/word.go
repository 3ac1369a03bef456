package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const docxBody = "word/document.xml"

// WordExtractor reads paragraph text from .docx files.
type WordExtractor struct{}

// Extract joins the non-empty paragraphs with blank lines.
func (WordExtractor) Extract(_ context.Context, path string) (*Document, error) {
	name := filepath.Base(path)
	fail := func(err error) error {
		return &ExtractionError{Kind: ErrUnreadable, Source: name, Msg: "failed to extract Word document", Err: err}
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fail(fmt.Errorf("not a .docx file: %w", err))
	}
	defer zr.Close()

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fail(errors.New(docxBody + " not found"))
	}
	rc, err := body.Open()
	if err != nil {
		return nil, fail(err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return nil, fail(err)
	}

	content := strings.Join(paragraphs, "\n\n")
	if utf8.RuneCountInString(content) < MinContentLength {
		return nil, &ExtractionError{Kind: ErrNoText, Source: name, Msg: "Word document contains too little text"}
	}
	return &Document{
		Title:   name,
		Content: content,
		Metadata: map[string]any{
			"paragraphs": len(paragraphs),
			"filename":   name,
		},
	}, nil
}

// docxParagraphs streams WordprocessingML and returns the text of each
// non-blank <w:p>.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				current.Reset()
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := current.String(); strings.TrimSpace(text) != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
