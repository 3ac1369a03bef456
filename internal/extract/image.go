package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"
)

// ImageExtractor runs the tesseract binary over an image file.
type ImageExtractor struct {
	Binary  string
	Lang    string
	Timeout time.Duration

	goos string
}

// NewImageExtractor creates an OCR extractor. An empty binary means "tesseract".
func NewImageExtractor(binary, lang string) *ImageExtractor {
	if binary == "" {
		binary = "tesseract"
	}
	return &ImageExtractor{Binary: binary, Lang: lang, Timeout: 60 * time.Second, goos: runtime.GOOS}
}

func (e *ImageExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	name := filepath.Base(path)

	bin, err := exec.LookPath(e.Binary)
	if err != nil {
		return nil, &ExtractionError{
			Kind:   ErrOCRMissing,
			Source: name,
			Msg:    "Tesseract OCR is not installed or not in PATH.\n\n" + installHint(e.goos),
		}
	}

	args := []string{path, "stdout"}
	if e.Lang != "" {
		args = append(args, "-l", e.Lang)
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, &ExtractionError{Kind: ErrUnreadable, Source: name, Msg: "Tesseract OCR error", Err: errors.New(msg)}
	}

	text := strings.TrimSpace(out.String())
	if utf8.RuneCountInString(text) < MinOCRLength {
		return nil, &ExtractionError{
			Kind:   ErrNoText,
			Source: name,
			Msg:    "Could not extract text from image. The image may not contain readable text, or the text quality may be too low for OCR.",
		}
	}

	meta := map[string]any{"filename": name}
	if w, h, ok := imageSize(path); ok {
		meta["image_size"] = []int{w, h}
	}
	return &Document{Title: name, Content: text, Metadata: meta}, nil
}

func imageSize(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// installHint tells the user how to install tesseract on their platform.
func installHint(goos string) string {
	switch goos {
	case "darwin":
		return "To install on macOS:\n  brew install tesseract\nIf you don't have Homebrew: https://brew.sh"
	case "linux":
		return "To install on Linux:\n  sudo apt-get install tesseract-ocr\nFor other distributions see https://github.com/tesseract-ocr/tesseract"
	case "windows":
		return fmt.Sprintf("To install on Windows:\n%s\n%s\n%s",
			"1. Download the installer from https://github.com/UB-Mannheim/tesseract/wiki",
			"2. Run the installer",
			`3. Add the install directory (usually C:\Program Files\Tesseract-OCR) to PATH, or set --ocr-binary to tesseract.exe`)
	default:
		return "Please install Tesseract OCR for your operating system: https://github.com/tesseract-ocr/tesseract"
	}
}
