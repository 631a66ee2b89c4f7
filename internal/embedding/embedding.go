package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"paperpod/internal/config"
	"paperpod/internal/llmservice"
	"paperpod/internal/models"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Embedder converts text into a fixed-dimensionality vector. Satisfied by
// langchaingo's EmbedderImpl; tests supply deterministic fakes.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ServiceError reports a failed call to the embedding service, as opposed
// to the service being unreachable. The wrapped error keeps whatever
// status and body detail the client surfaced.
type ServiceError struct {
	Model string
	Err   error
}

func (e *ServiceError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("embedding service (model %s): %v", e.Model, e.Err)
	}
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewOllamaEmbedder creates an embedder backed by an Ollama server.
func NewOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Initializing embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, &ServiceError{Model: llmConfig.Model, Err: err}
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, &ServiceError{Model: llmConfig.Model, Err: err}
	}
	return embedder, nil
}

// EmbedChunks embeds labeled chunks one by one, preserving input order.
// Any service failure aborts the batch; retries are the caller's call.
func EmbedChunks(ctx context.Context, embedder Embedder, chunks []models.LabeledChunk) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	var chunkEmbeddings []models.ChunkEmbedding
	for _, chunk := range chunks {
		emb, err := embedder.EmbedQuery(ctx, chunk.Text)
		if err != nil {
			return nil, &ServiceError{Err: err}
		}
		chunkEmbeddings = append(chunkEmbeddings, models.ChunkEmbedding{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Embedding: emb,
		})
	}
	return chunkEmbeddings, nil
}

// GenerateContext asks an LLM to situate a chunk within the whole document,
// improving retrieval for ambiguous fragments.
func GenerateContext(ctx context.Context, llmConfig *config.LLMConfig, document, chunk string) (string, error) {
	prompt := fmt.Sprintf(models.ContextPromptTemplate, document, chunk)

	msgContent := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := llmservice.GenerateContent(ctx, llmConfig, msgContent)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("context generation returned no choices")
	}
	return res.Choices[0].Content, nil
}
