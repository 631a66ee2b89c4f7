package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// LLMConfig points at one Ollama-style endpoint plus its sampling options.
// Temperature and TopP are pointers because zero is a meaningful setting
// (temperature 0 selects deterministic decoding); nil means "use the default".
type LLMConfig struct {
	BaseURL        string   `yaml:"base_url" env:"BASE_URL"`
	Model          string   `yaml:"model" env:"MODEL"`
	Key            string   `yaml:"key" env:"KEY"`
	NumPredict     int      `yaml:"num_predict" env:"NUM_PREDICT"`
	Temperature    *float64 `yaml:"temperature" env:"TEMPERATURE"`
	TopP           *float64 `yaml:"top_p" env:"TOP_P"`
	TimeoutSeconds int      `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend" env:"STORE_BACKEND"`
	Path          string `yaml:"path" env:"STORE_PATH"`
	Collection    string `yaml:"collection" env:"STORE_COLLECTION"`
	InMemory      bool   `yaml:"in_memory" env:"STORE_IN_MEMORY"`
	EncryptionKey string `yaml:"encryption_key" env:"STORE_ENCRYPTION_KEY"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Password string `yaml:"password" env:"DATABASE_PASSWORD"`
	Debug    bool   `yaml:"debug" env:"DATABASE_DEBUG"`
}

// RAGConfig controls chunking and retrieval. ChunkOverlap and
// MaxContextChars are pointers so an explicit 0 (no overlap, uncapped
// context) survives defaulting; nil means "use the default".
type RAGConfig struct {
	ChunkSize        int    `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap     *int   `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	ChunkMode        string `yaml:"chunk_mode" env:"CHUNK_MODE"`
	TopK             int    `yaml:"top_k" env:"TOP_K"`
	MaxContextChars  *int   `yaml:"max_context_chars" env:"MAX_CONTEXT_CHARS"`
	AnswerLanguage   string `yaml:"answer_language" env:"ANSWER_LANGUAGE"`
	ContextualChunks bool   `yaml:"contextual_chunks" env:"CONTEXTUAL_CHUNKS"`
}

type PodcastConfig struct {
	Minutes    int    `yaml:"minutes" env:"PODCAST_MINUTES"`
	Domain     string `yaml:"domain" env:"PODCAST_DOMAIN"`
	Style      string `yaml:"style" env:"PODCAST_STYLE"`
	Speaker1   string `yaml:"speaker1" env:"PODCAST_SPEAKER1"`
	Speaker2   string `yaml:"speaker2" env:"PODCAST_SPEAKER2"`
	NumPredict int    `yaml:"num_predict" env:"PODCAST_NUM_PREDICT"`
}

type Config struct {
	EmbedLLM   LLMConfig      `yaml:"embed_llm" envPrefix:"EMBED_"`
	GenLLM     LLMConfig      `yaml:"gen_llm" envPrefix:"GEN_"`
	ContextLLM LLMConfig      `yaml:"context_llm" envPrefix:"CONTEXT_"`
	Store      StoreConfig    `yaml:"store"`
	Database   DatabaseConfig `yaml:"database"`
	RAG        RAGConfig      `yaml:"rag"`
	Podcast    PodcastConfig  `yaml:"podcast"`
}

// LoadConfig reads the YAML file at path, then overlays environment
// variables on top, so EMBED_MODEL=... beats the file. A missing file is an
// error; missing keys fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setDefaultLLM(&c.EmbedLLM, "nomic-embed-text:v1.5")
	setDefaultLLM(&c.GenLLM, "gpt-oss:latest")
	setDefaultLLM(&c.ContextLLM, c.GenLLM.Model)

	if c.Store.Backend == "" {
		c.Store.Backend = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/chromem"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "docs"
	}

	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 2000
	}
	if c.RAG.ChunkOverlap == nil {
		c.RAG.ChunkOverlap = intPtr(200)
	}
	if c.RAG.ChunkMode == "" {
		c.RAG.ChunkMode = "char"
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 3
	}
	if c.RAG.MaxContextChars == nil {
		c.RAG.MaxContextChars = intPtr(20000)
	}
	if c.RAG.AnswerLanguage == "" {
		c.RAG.AnswerLanguage = "English"
	}

	if c.Podcast.Minutes == 0 {
		c.Podcast.Minutes = 15
	}
	if c.Podcast.Domain == "" {
		c.Podcast.Domain = "Computer Science"
	}
	if c.Podcast.Style == "" {
		c.Podcast.Style = "conversational and natural, like two people discussing a paper, keeping the technical terms"
	}
	if c.Podcast.Speaker1 == "" {
		c.Podcast.Speaker1 = "Speaker 1"
	}
	if c.Podcast.Speaker2 == "" {
		c.Podcast.Speaker2 = "Speaker 2"
	}
	if c.Podcast.NumPredict == 0 {
		c.Podcast.NumPredict = 3000
	}
}

func setDefaultLLM(llm *LLMConfig, model string) {
	if llm.BaseURL == "" {
		llm.BaseURL = "http://localhost:11434"
	}
	if llm.Model == "" {
		llm.Model = model
	}
	if llm.Key == "" {
		// Ollama's OpenAI-compatible endpoint accepts any token, but the
		// client requires one.
		llm.Key = "ollama"
	}
	if llm.Temperature == nil {
		llm.Temperature = floatPtr(0.7)
	}
	if llm.TopP == nil {
		llm.TopP = floatPtr(0.9)
	}
	if llm.TimeoutSeconds == 0 {
		llm.TimeoutSeconds = 600
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
