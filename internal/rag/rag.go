package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"paperpod/internal/chunker"
	"paperpod/internal/config"
	"paperpod/internal/embedding"
	"paperpod/internal/generate"
	"paperpod/internal/models"
	"paperpod/internal/parser"
	"paperpod/internal/prompt"
	"paperpod/internal/store"
)

// Generator is the text-generation boundary; satisfied by
// generate.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts generate.Options) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts generate.Options, onFragment func(string)) (string, error)
}

var thinkRe = regexp.MustCompile(models.ThinkTag)

// RAG wires the ingest and query pipelines around one vector store. The
// store is the only shared mutable state; it is injected so tests can use
// a disposable instance.
type RAG struct {
	store    store.VectorStore
	embedder embedding.Embedder
	gen      Generator
	cfg      *config.Config
}

func NewRAG(st store.VectorStore, embedder embedding.Embedder, gen Generator, cfg *config.Config) *RAG {
	return &RAG{store: st, embedder: embedder, gen: gen, cfg: cfg}
}

// Chunks parses and splits a document without touching the store or the
// embedding service. Chunk order follows document order.
func (r *RAG) Chunks(filePath string) ([]models.LabeledChunk, error) {
	source := filepath.Base(filePath)

	switch r.cfg.RAG.ChunkMode {
	case "page":
		pages, err := parser.ExtractPages(filePath)
		if err != nil {
			return nil, err
		}
		return chunker.Label(pages, source, models.ModePage), nil
	case "paragraph":
		text, err := parser.ExtractFullText(filePath)
		if err != nil {
			return nil, err
		}
		chunks, err := chunker.ByParagraphs(text, r.cfg.RAG.ChunkSize)
		if err != nil {
			return nil, err
		}
		return chunker.Label(chunks, source, models.ModeParagraph), nil
	case "char", "":
		text, err := parser.ExtractFullText(filePath)
		if err != nil {
			return nil, err
		}
		chunks, err := chunker.ByChars(text, r.cfg.RAG.ChunkSize, *r.cfg.RAG.ChunkOverlap)
		if err != nil {
			return nil, err
		}
		return chunker.Label(chunks, source, models.ModeChar), nil
	default:
		return nil, fmt.Errorf("unknown chunk mode: %s", r.cfg.RAG.ChunkMode)
	}
}

// Ingest parses a document, embeds its chunks and upserts them into the
// store. Returns the number of records written. Re-ingesting the same file
// overwrites its records rather than duplicating them.
func (r *RAG) Ingest(ctx context.Context, filePath string) (int, error) {
	labeled, err := r.Chunks(filePath)
	if err != nil {
		return 0, err
	}

	kept := make([]models.LabeledChunk, 0, len(labeled))
	for _, chunk := range labeled {
		if strings.TrimSpace(chunk.Text) != "" {
			kept = append(kept, chunk)
		}
	}

	if r.cfg.RAG.ContextualChunks {
		document, err := parser.ExtractFullText(filePath)
		if err != nil {
			return 0, err
		}
		for i, chunk := range kept {
			chunkContext, err := embedding.GenerateContext(ctx, &r.cfg.ContextLLM, document, chunk.Text)
			if err != nil {
				return 0, err
			}
			kept[i].Text = chunkContext + models.ContextSeparator + chunk.Text
		}
	}

	chunkEmbeddings, err := embedding.EmbedChunks(ctx, r.embedder, kept)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, ce := range chunkEmbeddings {
		if err := r.store.Upsert(ctx, ce.ID, ce.Content, ce.Embedding); err != nil {
			return stored, err
		}
		stored++
	}

	log.Info().Int("chunks", stored).Str("file", filePath).Msg("Ingested document")
	return stored, nil
}

// Retrieve embeds the query and returns the topK nearest chunks, most
// similar first. An empty store means an empty result, not an error.
func (r *RAG) Retrieve(ctx context.Context, query string, topK int) ([]store.Result, error) {
	emb, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &embedding.ServiceError{Err: err}
	}
	return r.store.Query(ctx, emb, topK)
}

// Query answers a question from the indexed corpus. When retrieval finds
// nothing, the generator is still called with an empty context section and
// instructed it has no material; the orchestrator never fabricates an
// answer of its own.
func (r *RAG) Query(ctx context.Context, question string) (*models.PromptResponse, error) {
	results, err := r.Retrieve(ctx, question, r.cfg.RAG.TopK)
	if err != nil {
		return nil, err
	}

	contexts := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	for _, res := range results {
		contexts = append(contexts, res.Content)
		sources = append(sources, res.ID)
	}

	answerPrompt := prompt.Answer(question, contexts, r.cfg.RAG.AnswerLanguage, *r.cfg.RAG.MaxContextChars)

	answer, err := r.gen.GenerateStream(ctx, answerPrompt, r.genOptions(&r.cfg.GenLLM), nil)
	if err != nil {
		return nil, err
	}

	return &models.PromptResponse{
		Query:   question,
		Source:  strings.Join(sources, ", "),
		Content: stripThink(answer),
	}, nil
}

// PodcastScript turns a document into a two-speaker transcript. The
// document is read page by page so the script follows source order.
func (r *RAG) PodcastScript(ctx context.Context, filePath string, opts prompt.PodcastOptions) (string, error) {
	pages, err := parser.ExtractPages(filePath)
	if err != nil {
		return "", err
	}
	labeled := chunker.Label(pages, filepath.Base(filePath), models.ModePage)

	texts := make([]string, 0, len(labeled))
	for _, chunk := range labeled {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		texts = append(texts, chunk.Text)
	}

	podcastPrompt := prompt.Podcast(texts, opts)

	genOpts := r.genOptions(&r.cfg.GenLLM)
	genOpts.NumPredict = r.cfg.Podcast.NumPredict

	scriptText, err := r.gen.Generate(ctx, podcastPrompt, genOpts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stripThink(scriptText)), nil
}

// Title asks the generator for a short title for a finished transcript.
func (r *RAG) Title(ctx context.Context, transcript string) (string, error) {
	titlePrompt := fmt.Sprintf("Write one short, catchy title for the following transcript. Answer with the title only.\n\n%s\n\nTitle:", transcript)

	genOpts := r.genOptions(&r.cfg.GenLLM)
	genOpts.NumPredict = 50

	title, err := r.gen.Generate(ctx, titlePrompt, genOpts)
	if err != nil {
		return "", err
	}
	title = strings.TrimSpace(stripThink(title))
	return strings.Trim(title, `"'`), nil
}

func (r *RAG) genOptions(llm *config.LLMConfig) generate.Options {
	return generate.Options{
		Model:       llm.Model,
		NumPredict:  llm.NumPredict,
		Temperature: *llm.Temperature,
		TopP:        *llm.TopP,
		Timeout:     time.Duration(llm.TimeoutSeconds) * time.Second,
	}
}

// stripThink drops reasoning-model scratch output so it never leaks into
// answers or transcripts.
func stripThink(text string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(text, ""))
}
