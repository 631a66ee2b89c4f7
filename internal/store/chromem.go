package store

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

const compress = false

// ChromemStore persists records with chromem-go. Data committed before a
// successful Upsert return is recoverable after restart when opened
// persistently; the in-memory variant survives only through its encrypted
// snapshot, restored on open and written on Close.
type ChromemStore struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	encryptionKey string
	filePath      string
	inMemory      bool

	mu   sync.Mutex
	dims int // fixed by the first upsert; mixed-model embeddings are rejected
}

// NewChromemStore opens (or creates) the named collection at dbPath. With
// inMemory set, nothing touches disk except the encrypted snapshot: an
// existing snapshot is restored on open, and Close writes a fresh one when
// an encryption key is configured.
func NewChromemStore(dbPath, collectionName string, inMemory bool, encryptionKey string) (*ChromemStore, error) {
	filePath := dbPath + "/" + collectionName + ".chromem"

	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
		if encryptionKey != "" {
			if _, statErr := os.Stat(filePath); statErr == nil {
				if err := db.ImportFromFile(filePath, encryptionKey, collectionName); err != nil {
					return nil, fmt.Errorf("failed to import database: %v", err)
				}
				log.Debug().Msgf("Restored collection %s from %s", collectionName, filePath)
			}
		}
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &ChromemStore{
		db:            db,
		collection:    collection,
		dbPath:        dbPath,
		encryptionKey: encryptionKey,
		filePath:      filePath,
		inMemory:      inMemory,
	}, nil
}

func (m *ChromemStore) Upsert(ctx context.Context, id, content string, embedding []float32) error {
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("record embedding is required")
	}
	if err := m.checkDims(len(embedding)); err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Embedding: embedding,
	}
	if err := m.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add document: %v", err)
	}
	return nil
}

func (m *ChromemStore) Query(ctx context.Context, embedding []float32, topK int) ([]Result, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding is required")
	}
	count := m.collection.Count()
	if count == 0 || topK <= 0 {
		return nil, nil
	}
	// chromem rejects nResults larger than the record count.
	if topK > count {
		topK = count
	}

	hits, err := m.collection.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			ID:         hit.ID,
			Content:    hit.Content,
			Similarity: hit.Similarity,
		})
	}
	return results, nil
}

func (m *ChromemStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := m.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete documents: %v", err)
	}
	return nil
}

func (m *ChromemStore) Count() (int, error) {
	return m.collection.Count(), nil
}

// Close flushes the in-memory variant to its encrypted snapshot when an
// encryption key is configured. The persistent variant needs nothing:
// chromem flushes every upsert to disk before returning.
func (m *ChromemStore) Close() error {
	if m.inMemory && m.encryptionKey != "" && m.collection.Count() > 0 {
		return m.Export(context.Background())
	}
	return nil
}

// Export writes the collection to a single encrypted file. Only useful for
// the in-memory variant.
func (m *ChromemStore) Export(ctx context.Context) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if m.dbPath == "" {
		return fmt.Errorf("db path is required")
	}

	log.Debug().Msgf("Exporting collection %s to %s", m.collection.Name, m.filePath)
	if err := m.db.ExportToFile(m.filePath, compress, m.encryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

func (m *ChromemStore) checkDims(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dims == 0 {
		m.dims = n
		return nil
	}
	if n != m.dims {
		return fmt.Errorf("embedding has %d dimensions, collection expects %d", n, m.dims)
	}
	return nil
}
