package chunker

import (
	"fmt"
	"strings"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// Chunker splits raw text into overlapping rune windows suitable for
// embedding. Splitting is deterministic: the same input always yields the
// same chunk boundaries.
type Chunker struct {
	size    int
	overlap int
}

// New validates the window parameters. Overlap must be strictly smaller than
// the window size so every step makes progress.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", entity.ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d for size %d", entity.ErrInvalidChunking, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk produces the window sequence. Text shorter than the window yields
// exactly one chunk; empty or whitespace-only text yields none. SourceOffset
// is the rune offset of the chunk start in the original text.
func (c *Chunker) Chunk(text string) []entity.DocumentChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap

	var chunks []entity.DocumentChunk
	for start := 0; ; start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, entity.DocumentChunk{
			Text:         string(runes[start:end]),
			SourceOffset: start,
			ChunkIndex:   len(chunks),
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}
