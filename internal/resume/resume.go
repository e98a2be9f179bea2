// Package resume turns uploaded résumé documents into plain text.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxSize caps accepted uploads.
const MaxSize = 10 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported file format: only pdf, txt and md are allowed")
	ErrNoText            = errors.New("no extractable text found in document")
	ErrTooLarge          = fmt.Errorf("document exceeds %d bytes", MaxSize)

	spaceRun   = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlineRun = regexp.MustCompile(`\n{2,}`)
)

// Extract returns normalised plain text for the named document. The format is
// taken from the file extension, falling back to the %PDF magic header.
func Extract(filename string, data []byte) (string, error) {
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}

	var (
		text string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case ext == ".pdf", ext == "" && bytes.HasPrefix(data, []byte("%PDF")):
		text, err = extractPDF(data)
	case ext == ".txt", ext == ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not valid utf-8", filepath.Base(filename))
		}
		text = string(data)
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", err
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", ErrNoText
	}

	return text, nil
}

// ReadAll reads at most MaxSize bytes from r and extracts its text.
func ReadAll(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(filename), err)
	}
	return Extract(filename, data)
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
