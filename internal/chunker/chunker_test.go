package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperpod/internal/models"
)

func TestByChars_Windows(t *testing.T) {
	chunks, err := ByChars("ABCDEFGHIJ", 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCD", "DEFG", "GHIJ"}, chunks)
}

func TestByChars_ReconstructsInput(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog, twice on Sundays."
	cases := []struct {
		maxChars, overlap int
	}{
		{4, 1},
		{10, 3},
		{7, 0},
		{100, 10},
	}
	for _, tc := range cases {
		chunks, err := ByChars(text, tc.maxChars, tc.overlap)
		require.NoError(t, err)

		var rebuilt strings.Builder
		for i, c := range chunks {
			runes := []rune(c)
			if i > 0 {
				runes = runes[tc.overlap:]
			}
			rebuilt.WriteString(string(runes))
		}
		assert.Equal(t, text, rebuilt.String(), "max_chars=%d overlap=%d", tc.maxChars, tc.overlap)
	}
}

func TestByChars_MultiByteSafe(t *testing.T) {
	text := "人工智慧正在改變世界"
	chunks, err := ByChars(text, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, "人工智慧", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 4)
	}
}

func TestByChars_InvalidParams(t *testing.T) {
	_, err := ByChars("abc", 4, 4)
	assert.ErrorIs(t, err, ErrInvalidChunkParams)

	_, err = ByChars("abc", 4, 5)
	assert.ErrorIs(t, err, ErrInvalidChunkParams)

	_, err = ByChars("abc", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidChunkParams)

	_, err = ByChars("abc", 4, -1)
	assert.ErrorIs(t, err, ErrInvalidChunkParams)
}

func TestByChars_Empty(t *testing.T) {
	chunks, err := ByChars("", 4, 1)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestByParagraphs_PacksGreedily(t *testing.T) {
	text := "aaaa\n\nbbbb\ncccc\n\ndddd"
	chunks, err := ByParagraphs(text, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc\ndddd"}, chunks)
}

func TestByParagraphs_OversizedParagraphEmittedWhole(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks, err := ByParagraphs("short\n"+long+"\ntail", 10)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, long, chunks[1])
}

func TestByParagraphs_DropsEmptyParagraphs(t *testing.T) {
	chunks, err := ByParagraphs("\n\n  \none\n\n\ntwo\n", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"one\ntwo"}, chunks)
}

func TestLabel_Scenario(t *testing.T) {
	labeled := Label([]string{"x", "y"}, "doc.pdf", models.ModeChar)
	require.Len(t, labeled, 2)
	assert.Equal(t, models.LabeledChunk{ID: "doc.pdf#c1", Text: "x"}, labeled[0])
	assert.Equal(t, models.LabeledChunk{ID: "doc.pdf#c2", Text: "y"}, labeled[1])
}

func TestLabel_IDsDistinctAndOrdered(t *testing.T) {
	chunks := []string{"a", "b", "c", "d", "e"}
	labeled := Label(chunks, "paper.pdf", models.ModePage)

	seen := map[string]bool{}
	for i, lc := range labeled {
		assert.False(t, seen[lc.ID], "duplicate id %s", lc.ID)
		seen[lc.ID] = true
		assert.Equal(t, chunks[i], lc.Text)
	}
	assert.Equal(t, "paper.pdf#p1", labeled[0].ID)
	assert.Equal(t, "paper.pdf#p5", labeled[4].ID)
}
