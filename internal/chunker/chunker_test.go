package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

func TestNew_InvalidParameters(t *testing.T) {
	_, err := New(0, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidChunking)

	_, err = New(100, -1)
	assert.ErrorIs(t, err, entity.ErrInvalidChunking)

	_, err = New(100, 100)
	assert.ErrorIs(t, err, entity.ErrInvalidChunking)

	_, err = New(100, 150)
	assert.ErrorIs(t, err, entity.ErrInvalidChunking)
}

func TestChunk_EmptyInput(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\t  "))
}

func TestChunk_ShortText(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	chunks := c.Chunk("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].SourceOffset)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
}

func TestChunk_OverlapAndCoverage(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 3) // 30 runes
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	runes := []rune(text)
	step := 10 - 3

	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		assert.Equal(t, i*step, ch.SourceOffset)

		// Chunk text matches the window at its recorded offset
		end := ch.SourceOffset + len([]rune(ch.Text))
		assert.Equal(t, string(runes[ch.SourceOffset:end]), ch.Text)
		assert.LessOrEqual(t, len([]rune(ch.Text)), 10)
	}

	// Last chunk reaches the end of the text
	last := chunks[len(chunks)-1]
	assert.Equal(t, len(runes), last.SourceOffset+len([]rune(last.Text)))

	// Consecutive chunks overlap by exactly the configured amount
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		curr := []rune(chunks[i].Text)
		if len(prev) == 10 {
			assert.Equal(t, string(prev[step:]), string(curr[:3]))
		}
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)
	first := c.Chunk(text)
	second := c.Chunk(text)
	assert.Equal(t, first, second)
}

func TestChunk_MultibyteRunes(t *testing.T) {
	c, err := New(4, 1)
	require.NoError(t, err)

	chunks := c.Chunk("таблица данных")
	require.NotEmpty(t, chunks)

	// Offsets are rune offsets, so windows never split a rune
	runes := []rune("таблица данных")
	for _, ch := range chunks {
		end := ch.SourceOffset + len([]rune(ch.Text))
		assert.Equal(t, string(runes[ch.SourceOffset:end]), ch.Text)
	}
}
