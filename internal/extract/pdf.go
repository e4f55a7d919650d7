package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// PDFText extracts the plain text of a PDF. The magic bytes are checked
// before parsing so a mislabeled upload fails with a clear error instead of a
// parser panic deep in the reader.
func PDFText(data []byte) (string, error) {
	if !isPDF(data) {
		return "", fmt.Errorf("%w: missing %%PDF header", entity.ErrUnsupportedFormat)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidFile, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidFile, err)
	}

	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text := collapseWhitespace(string(b))
	if text == "" {
		return "", entity.ErrEmptyDocument
	}
	return text, nil
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
