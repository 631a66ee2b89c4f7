package chunker

import (
	"errors"
	"fmt"
	"strings"

	"paperpod/internal/models"
)

// ErrInvalidChunkParams is returned when chunking parameters would loop
// forever or produce empty windows.
var ErrInvalidChunkParams = errors.New("chunker: overlap must be non-negative and smaller than max chars")

// ByChars splits text into consecutive windows of at most maxChars
// characters. Each window after the first starts overlap characters before
// the end of the previous one, so concatenating the windows with the
// overlaps removed reconstructs the input exactly. Windows are measured in
// runes, not bytes, so multi-byte text is never split mid-character.
func ByChars(text string, maxChars, overlap int) ([]string, error) {
	if maxChars <= 0 || overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("%w (max_chars=%d, overlap=%d)", ErrInvalidChunkParams, maxChars, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	var chunks []string
	for i := 0; i < n; {
		j := i + maxChars
		if j > n {
			j = n
		}
		chunks = append(chunks, string(runes[i:j]))
		if j == n {
			break
		}
		i = j - overlap
	}
	return chunks, nil
}

// ByParagraphs splits text on line boundaries, drops empty paragraphs and
// greedily packs consecutive paragraphs into chunks of roughly maxChars. A
// single paragraph longer than maxChars is emitted whole; oversized chunks
// beat broken paragraphs.
func ByParagraphs(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w (max_chars=%d)", ErrInvalidChunkParams, maxChars)
	}

	var chunks []string
	var buf []string
	curLen := 0
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := len([]rune(para))
		if curLen+paraLen > maxChars && len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf, curLen = nil, 0
		}
		buf = append(buf, para)
		curLen += paraLen
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}
	return chunks, nil
}

// Label tags chunks with provenance ids like "paper.pdf#c1", preserving
// input order. Ids are 1-based.
func Label(chunks []string, source string, mode models.ChunkMode) []models.LabeledChunk {
	labeled := make([]models.LabeledChunk, 0, len(chunks))
	for i, text := range chunks {
		labeled = append(labeled, models.LabeledChunk{
			ID:   models.ChunkLabel(source, mode, i+1),
			Text: text,
		})
	}
	return labeled
}
