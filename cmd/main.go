package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"paperpod/internal/config"
	"paperpod/internal/db"
	"paperpod/internal/embedding"
	"paperpod/internal/generate"
	"paperpod/internal/helper"
	"paperpod/internal/prompt"
	"paperpod/internal/rag"
	"paperpod/internal/script"
	"paperpod/internal/store"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	query := flag.String("query", "", "Question to answer from the indexed corpus")
	podcast := flag.String("podcast", "", "Path to a document file to turn into a podcast transcript")
	minutes := flag.Int("minutes", 0, "Target podcast length in minutes (overrides config)")
	outDir := flag.String("out", "", "Directory to save the podcast transcript into")
	dryRun := flag.Bool("dry-run", false, "Chunk and print only, do not embed or store")
	reset := flag.Bool("reset", false, "Drop the existing index before ingesting (required when switching embedding models)")
	flag.Parse()

	// .env is optional; environment beats the YAML file.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	switch {
	case *filePath != "":
		ingestDocument(ctx, cfg, *filePath, *dryRun, *reset)
	case *query != "":
		answerQuery(ctx, cfg, *query)
	case *podcast != "":
		makePodcast(ctx, cfg, *podcast, *minutes, *outDir)
	default:
		log.Fatal().Msg("Provide a document with -file, a question with -query, or a document with -podcast")
	}
}

// openStore opens the configured backend. With reset set the existing
// index is dropped first, so a corpus embedded with one model can be
// rebuilt with another.
func openStore(cfg *config.Config, reset bool) (store.VectorStore, error) {
	switch cfg.Store.Backend {
	case "chromem":
		if reset {
			if err := os.RemoveAll(cfg.Store.Path); err != nil {
				return nil, err
			}
		}
		if !cfg.Store.InMemory {
			if err := helper.CreateFolder(cfg.Store.Path); err != nil {
				return nil, err
			}
		}
		return store.NewChromemStore(cfg.Store.Path, cfg.Store.Collection, cfg.Store.InMemory, cfg.Store.EncryptionKey)
	case "postgres":
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		if reset {
			if err := db.DropDocuments(context.Background(), bunDB); err != nil {
				return nil, err
			}
		}
		if err := db.InitDB(context.Background(), bunDB); err != nil {
			return nil, err
		}
		return db.NewStore(bunDB), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

func newRAG(cfg *config.Config, reset bool) (*rag.RAG, store.VectorStore, error) {
	st, err := openStore(cfg, reset)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	gen := generate.NewClient(cfg.GenLLM.BaseURL, time.Duration(cfg.GenLLM.TimeoutSeconds)*time.Second)
	return rag.NewRAG(st, embedder, gen, cfg), st, nil
}

func ingestDocument(ctx context.Context, cfg *config.Config, filePath string, dryRun, reset bool) {
	if dryRun {
		r := rag.NewRAG(nil, nil, nil, cfg)
		chunks, err := r.Chunks(filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error chunking document")
		}
		helper.PrettyPrint(chunks)
		return
	}

	r, st, err := newRAG(cfg, reset)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pipeline")
	}
	defer st.Close()

	count, err := r.Ingest(ctx, filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	log.Info().Int("chunks", count).Msg("Document indexed")
}

func answerQuery(ctx context.Context, cfg *config.Config, query string) {
	r, st, err := newRAG(cfg, false)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pipeline")
	}
	defer st.Close()

	response, err := r.Query(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

func makePodcast(ctx context.Context, cfg *config.Config, filePath string, minutes int, outDir string) {
	r, st, err := newRAG(cfg, false)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pipeline")
	}
	defer st.Close()

	opts := prompt.PodcastOptions{
		Minutes:         cfg.Podcast.Minutes,
		Domain:          cfg.Podcast.Domain,
		Style:           cfg.Podcast.Style,
		Speaker1:        cfg.Podcast.Speaker1,
		Speaker2:        cfg.Podcast.Speaker2,
		MaxContextChars: *cfg.RAG.MaxContextChars,
	}
	if minutes > 0 {
		opts.Minutes = minutes
	}

	transcript, err := r.PodcastScript(ctx, filePath, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating podcast script")
	}

	// The TTS consumer relies purely on the speaker line-prefix convention;
	// fail loudly here rather than hand it a malformed transcript.
	lines, err := script.Parse(transcript, opts.Speaker1, opts.Speaker2)
	if err != nil {
		log.Fatal().Err(err).Msg("Generated transcript does not follow the speaker format")
	}
	log.Info().Int("turns", len(lines)).Msg("Transcript validated")

	// Hand the consumer the normalized one-line-per-turn form, not the raw
	// model output with its wrapped continuations and blank lines.
	transcript = script.Format(lines)

	title, err := r.Title(ctx, transcript)
	if err != nil {
		log.Warn().Err(err).Msg("Error generating title")
	} else {
		log.Info().Str("title", title).Msg("Generated title")
	}

	if outDir != "" {
		path, err := script.Save(outDir, transcript)
		if err != nil {
			log.Fatal().Err(err).Msg("Error saving transcript")
		}
		log.Info().Str("path", path).Msg("Transcript saved")
		return
	}

	fmt.Printf("%s\n", transcript)
}
