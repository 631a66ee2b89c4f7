package models

import "fmt"

// ChunkMode tags how a document was split into chunks. The tag is part of
// the chunk id, so the set is closed: an id like "paper.pdf#p3" must stay
// parseable forever.
type ChunkMode string

const (
	ModeChar      ChunkMode = "c"
	ModePage      ChunkMode = "p"
	ModeParagraph ChunkMode = "par"
)

// LabeledChunk pairs chunk text with its provenance id, e.g. ("paper.pdf#c1", "...").
type LabeledChunk struct {
	ID   string
	Text string
}

// ChunkEmbedding is a labeled chunk ready to be stored.
type ChunkEmbedding struct {
	ID        string
	Content   string
	Embedding []float32
}

type PromptResponse struct {
	Query   string
	Source  string
	Content string
}

// ChunkLabel derives the stable provenance id for the n-th chunk of a
// source. Index is 1-based.
func ChunkLabel(source string, mode ChunkMode, index int) string {
	return fmt.Sprintf("%s#%s%d", source, mode, index)
}
