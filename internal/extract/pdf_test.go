package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

func TestPDFText_RejectsNonPDF(t *testing.T) {
	_, err := PDFText([]byte("plain text masquerading as a pdf"))
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)

	_, err = PDFText(nil)
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)

	_, err = PDFText([]byte{0x25, 0x50})
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("  a\n\tb   c \n"))
	assert.Equal(t, "", collapseWhitespace(" \n\t "))
	assert.Equal(t, "unchanged", collapseWhitespace("unchanged"))
}
