package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/quizforge/internal/model"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Cell biology studies the structure of cells</w:t></w:r><w:r><w:t xml:space="preserve"> and their organelles.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Mitochondria produce ATP.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, dir, name, body string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestWordExtractor(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "notes.docx", documentXML)

	doc, err := WordExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "notes.docx", doc.Title)
	assert.Equal(t, "Cell biology studies the structure of cells and their organelles.\n\nMitochondria produce ATP.", doc.Content)
	assert.Equal(t, 2, doc.Metadata["paragraphs"])
}

func TestWordExtractorRejectsNonDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.doc")
	require.NoError(t, os.WriteFile(path, []byte("\xd0\xcf\x11\xe0 binary word 97"), 0o644))

	_, err := WordExtractor{}.Extract(context.Background(), path)
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrUnreadable, xerr.Kind)
}

func TestWordExtractorTooLittleText(t *testing.T) {
	body := `<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>Hi</w:t></w:r></w:p></w:body></w:document>`
	path := writeDocx(t, t.TempDir(), "short.docx", body)

	_, err := WordExtractor{}.Extract(context.Background(), path)
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrNoText, xerr.Kind)
}

// writePDF writes a minimal PDF with one Helvetica text line per page.
func writePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	n := len(pages)
	var buf bytes.Buffer
	offsets := make([]int, 0, 2+2*n)
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 << /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >> >> >> "+
			"/Contents %d 0 R >>", 4+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPDFExtractor(t *testing.T) {
	path := writePDF(t, t.TempDir(), "biology.pdf",
		"Cells are the basic unit of life.",
		"Mitochondria produce most of the energy of a cell.")

	doc, err := PDFExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "biology.pdf", doc.Title)
	assert.Equal(t, 2, doc.Metadata["pages"])
	assert.Equal(t, "biology.pdf", doc.Metadata["filename"])

	first := strings.Index(doc.Content, "Cells are the basic unit of life.")
	second := strings.Index(doc.Content, "Mitochondria produce most of the energy of a cell.")
	require.GreaterOrEqual(t, first, 0, doc.Content)
	require.Greater(t, second, first, doc.Content)
	assert.Contains(t, doc.Content[first:second], "\n\n", "pages are separated by a blank line")
}

func TestPDFExtractorNoText(t *testing.T) {
	path := writePDF(t, t.TempDir(), "scan.pdf", "Fig. 1")

	_, err := PDFExtractor{}.Extract(context.Background(), path)
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrNoText, xerr.Kind)
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := PDFExtractor{}.Extract(context.Background(), path)
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrUnreadable, xerr.Kind)
}

func TestImageExtractorMissingBinary(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows", "plan9"} {
		t.Run(goos, func(t *testing.T) {
			e := NewImageExtractor("tesseract-not-installed-anywhere", "eng")
			e.goos = goos

			_, err := e.Extract(context.Background(), "scan.png")
			var xerr *ExtractionError
			require.True(t, errors.As(err, &xerr))
			assert.Equal(t, ErrOCRMissing, xerr.Kind)
			assert.Contains(t, err.Error(), "Tesseract OCR is not installed")
			assert.Contains(t, err.Error(), installHint(goos))
		})
	}
}

// fakeTesseract installs a shell script that stands in for the OCR binary.
func fakeTesseract(t *testing.T, script string) *ImageExtractor {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	bin := filepath.Join(t.TempDir(), "tesseract")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return NewImageExtractor(bin, "eng")
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
	return path
}

func TestImageExtractor(t *testing.T) {
	e := fakeTesseract(t, `echo "  Photosynthesis happens in chloroplasts.  "`)
	path := writePNG(t, t.TempDir(), 4, 3)

	doc, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "scan.png", doc.Title)
	assert.Equal(t, "Photosynthesis happens in chloroplasts.", doc.Content)
	assert.Equal(t, "scan.png", doc.Metadata["filename"])
	assert.Equal(t, []int{4, 3}, doc.Metadata["image_size"])
}

func TestImageExtractorPassesLanguage(t *testing.T) {
	e := fakeTesseract(t, `echo "args: $2 $3 $4 and enough text"`)
	e.Lang = "rus"
	path := writePNG(t, t.TempDir(), 1, 1)

	doc, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "args: stdout -l rus and enough text", doc.Content)
}

func TestImageExtractorTooLittleText(t *testing.T) {
	e := fakeTesseract(t, `echo "hi there"`)
	path := writePNG(t, t.TempDir(), 1, 1)

	_, err := e.Extract(context.Background(), path)
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrNoText, xerr.Kind)
	assert.Contains(t, err.Error(), "Could not extract text from image")
}

func TestImageExtractorOCRFailure(t *testing.T) {
	e := fakeTesseract(t, `echo "Error in pixReadStream" >&2; exit 1`)
	path := writePNG(t, t.TempDir(), 1, 1)

	_, err := e.Extract(context.Background(), path)
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrUnreadable, xerr.Kind)
	assert.Contains(t, err.Error(), "Error in pixReadStream")
}

func TestInstallHintPerPlatform(t *testing.T) {
	assert.Contains(t, installHint("darwin"), "brew install tesseract")
	assert.Contains(t, installHint("linux"), "apt-get install tesseract-ocr")
	assert.Contains(t, installHint("windows"), "UB-Mannheim")
	assert.Contains(t, installHint("windows"), "PATH")
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry(t.TempDir())
	_, ok := r.Lookup(model.SourcePDF)
	assert.False(t, ok)

	_, err := r.Extract(context.Background(), model.SourcePDF, "x.pdf")
	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrUnsupported, xerr.Kind)

	r.Register(model.SourcePDF, PDFExtractor{})
	e, ok := r.Lookup(model.SourcePDF)
	require.True(t, ok)
	assert.IsType(t, PDFExtractor{}, e)
}

func TestExtractUploadRemovesStagedFile(t *testing.T) {
	dir := t.TempDir()
	var seen string

	r := NewRegistry(dir)
	r.Register(model.SourcePDF, ExtractorFunc(func(_ context.Context, path string) (*Document, error) {
		seen = path
		_, err := os.Stat(path)
		require.NoError(t, err, "staged file should exist during extraction")
		return &Document{Title: filepath.Base(path), Content: strings.Repeat("x", 60)}, nil
	}))
	r.Register(model.SourceWord, ExtractorFunc(func(_ context.Context, path string) (*Document, error) {
		seen = path
		return nil, errors.New("boom")
	}))

	doc, err := r.ExtractUpload(context.Background(), model.SourcePDF, "lecture.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "lecture.pdf", doc.Title)
	assert.Equal(t, "lecture.pdf", doc.Metadata["original_filename"])
	assert.True(t, strings.HasSuffix(seen, "_lecture.pdf"))
	_, statErr := os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr), "staged file should be removed after success")

	_, err = r.ExtractUpload(context.Background(), model.SourceWord, "notes.docx", strings.NewReader("PK"))
	require.Error(t, err)
	_, statErr = os.Stat(seen)
	assert.True(t, os.IsNotExist(statErr), "staged file should be removed after failure")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageUploadStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	path, err := StageUpload(dir, "../../etc/passwd", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_passwd"))
}

func TestKindForFilename(t *testing.T) {
	tests := []struct {
		name string
		want model.SourceKind
		ok   bool
	}{
		{"a.pdf", model.SourcePDF, true},
		{"A.PDF", model.SourcePDF, true},
		{"b.docx", model.SourceWord, true},
		{"b.doc", model.SourceWord, true},
		{"c.jpeg", model.SourceImage, true},
		{"c.gif", model.SourceImage, true},
		{"d.exe", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := KindForFilename(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}
