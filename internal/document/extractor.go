// Package document turns uploaded files into plain text for the structured
// extractor. PDF is the main format; HTML and plain text are also accepted.
package document

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/pkg/logger"
)

var (
	ErrUnreadable  = errors.New("document could not be read")
	ErrUnsupported = errors.New("unsupported document type")
)

// Result is the text of a document. Pages is zero for formats without pages.
type Result struct {
	Text  string
	Pages int
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads a PDF and joins the plain text of each page with "\n" in page
// order. Pages without text contribute an empty segment.
func (e *Extractor) Extract(r io.ReaderAt, size int64) (res Result, err error) {
	if size <= 0 {
		return Result{}, fmt.Errorf("%w: empty input", ErrUnreadable)
	}

	// the pdf package panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	numPages := reader.NumPage()
	segments := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		segments = append(segments, pageText(reader.Page(i), i))
	}

	logger.Debug("PDF text extracted", zap.Int("pages", numPages))

	return Result{Text: strings.Join(segments, "\n"), Pages: numPages}, nil
}

func pageText(page pdf.Page, num int) string {
	if page.V.IsNull() {
		return ""
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		logger.Debug("Page has no readable text", zap.Int("page", num), zap.Error(err))
		return ""
	}
	return text
}
