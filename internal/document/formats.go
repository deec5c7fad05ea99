package document

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

type Kind string

const (
	KindPDF     Kind = "pdf"
	KindHTML    Kind = "html"
	KindText    Kind = "text"
	KindUnknown Kind = ""
)

var whitespace = regexp.MustCompile(`\s+`)

// DetectKind picks the format from the file extension, falling back to the
// declared content type.
func DetectKind(filename, contentType string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".html", ".htm":
		return KindHTML
	case ".txt", ".md":
		return KindText
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "application/pdf"):
		return KindPDF
	case strings.HasPrefix(ct, "text/html"):
		return KindHTML
	case strings.HasPrefix(ct, "text/plain"), strings.HasPrefix(ct, "text/markdown"):
		return KindText
	}
	return KindUnknown
}

// ExtractDocument dispatches on the document kind.
func (e *Extractor) ExtractDocument(r io.ReaderAt, size int64, filename, contentType string) (Result, error) {
	kind := DetectKind(filename, contentType)
	if kind == KindUnknown {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, filename)
	}
	if size <= 0 {
		return Result{}, fmt.Errorf("%w: empty input", ErrUnreadable)
	}

	if kind == KindPDF {
		return e.Extract(r, size)
	}

	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("%w: not valid UTF-8 text", ErrUnreadable)
	}

	if kind == KindHTML {
		text, err := cleanHTML(string(data))
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text}, nil
	}

	return Result{Text: string(data)}, nil
}

// cleanHTML keeps the visible body text.
func cleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()

	text := whitespace.ReplaceAllString(doc.Find("body").Text(), " ")
	return strings.TrimSpace(text), nil
}
