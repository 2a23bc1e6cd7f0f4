package security

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxDocumentSize caps decoded health documents. Gemini accepts inline data
// up to 20MB per request including the prompt.
const MaxDocumentSize = 15 << 20

var (
	ErrNoExtension         = errors.New("file has no extension")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrContentMismatch     = errors.New("file content does not match extension")
	ErrMIMENotAllowed      = errors.New("MIME type not allowed")
	ErrEmptyFile           = errors.New("file is empty")
	ErrFileTooLarge        = errors.New("file exceeds maximum size")
)

type FileValidationResult struct {
	Valid        bool
	Extension    string
	DetectedMIME string
	Err          error
}

// Document types accepted for analysis, keyed by extension.
var documentTypes = map[string]struct {
	magic [][]byte
	mimes []string
}{
	".pdf": {
		magic: [][]byte{[]byte("%PDF-")},
		mimes: []string{"application/pdf"},
	},
}

// ValidateDocument checks, in order: size, extension whitelist, magic bytes,
// and the MIME type sniffed from content.
func ValidateDocument(filename string, data []byte) FileValidationResult {
	var result FileValidationResult

	if len(data) == 0 {
		result.Err = ErrEmptyFile
		return result
	}
	if len(data) > MaxDocumentSize {
		result.Err = fmt.Errorf("%w (%d MB)", ErrFileTooLarge, MaxDocumentSize>>20)
		return result
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.Err = ErrNoExtension
		return result
	}
	result.Extension = ext

	spec, ok := documentTypes[ext]
	if !ok {
		result.Err = fmt.Errorf("%w: %s", ErrExtensionNotAllowed, ext)
		return result
	}

	if !hasPrefix(data, spec.magic) {
		result.Err = ErrContentMismatch
		return result
	}

	detected := mimetype.Detect(data)
	result.DetectedMIME = detected.String()
	if !mimeAllowed(detected, spec.mimes) {
		result.Err = fmt.Errorf("%w: %s", ErrMIMENotAllowed, detected.String())
		return result
	}

	result.Valid = true
	return result
}

func hasPrefix(data []byte, signatures [][]byte) bool {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

func mimeAllowed(detected *mimetype.MIME, allowed []string) bool {
	for _, m := range allowed {
		if detected.Is(m) {
			return true
		}
	}
	return false
}

// SanitizeFileName strips directories and characters unsafe in object keys.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "document.pdf"
	}
	return out
}
