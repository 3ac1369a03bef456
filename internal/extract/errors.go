package extract

import (
	"fmt"
	"strings"
)

// ErrorKind classifies an ExtractionError.
type ErrorKind string

const (
	// ErrTiersExhausted means every URL strategy failed.
	ErrTiersExhausted ErrorKind = "tiers_exhausted"
	// ErrUnreadable means a file could not be opened or parsed.
	ErrUnreadable ErrorKind = "unreadable"
	// ErrUnsupported means no extractor handles the requested kind.
	ErrUnsupported ErrorKind = "unsupported"
	// ErrOCRMissing means the OCR engine is not installed.
	ErrOCRMissing ErrorKind = "ocr_missing"
	// ErrNoText means extraction succeeded but produced too little text.
	ErrNoText ErrorKind = "no_text"
)

// TierFailure records why one URL strategy failed.
type TierFailure struct {
	Tier string
	Err  error
}

// ExtractionError reports a failed extraction.
type ExtractionError struct {
	Kind     ErrorKind
	Source   string
	Msg      string
	Failures []TierFailure
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// exhausted builds the error returned when every tier failed. Each tier's
// cause is cut to 100 characters.
func exhausted(source string, failures []TierFailure) *ExtractionError {
	var sb strings.Builder
	sb.WriteString("failed to extract content using all methods.")
	for _, f := range failures {
		fmt.Fprintf(&sb, " %s error: %s.", f.Tier, truncate(f.Err.Error(), 100))
	}
	return &ExtractionError{
		Kind:     ErrTiersExhausted,
		Source:   source,
		Msg:      sb.String(),
		Failures: failures,
	}
}

// NormalizationError reports input that cannot be turned into a fetchable URL.
type NormalizationError struct {
	Input  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return e.Reason
}
