package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"paperpod/internal/config"
	"paperpod/internal/store"
)

// Document is one indexed record. The embedding column is pgvector; its
// dimensionality is fixed at table creation and mixing embedding models
// against one table is the caller's responsibility to avoid.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string    `bun:"id,pk"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(buildDSN(cfg.URL)), pgdriver.WithPassword(cfg.Password))), nil
}

// buildDSN disables TLS unless the URL already says otherwise, without
// mangling URLs that carry their own query parameters.
func buildDSN(url string) string {
	if strings.Contains(url, "sslmode=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "sslmode=disable"
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

// DropDocuments removes the table entirely; used to rebuild the index when
// switching embedding models.
func DropDocuments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// Store adapts the documents table to the vector store interface using
// pgvector cosine distance.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Upsert(ctx context.Context, id, content string, embedding []float32) error {
	doc := &Document{
		ID:        id,
		Content:   content,
		Embedding: embedding,
	}
	_, err := s.db.NewInsert().
		Model(doc).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	return err
}

func (s *Store) Query(ctx context.Context, embedding []float32, topK int) ([]store.Result, error) {
	if topK <= 0 {
		return nil, nil
	}

	var rows []struct {
		ID      string  `bun:"id"`
		Content string  `bun:"content"`
		Score   float32 `bun:"score"`
	}
	err := s.db.NewSelect().
		TableExpr("documents").
		ColumnExpr("id, content, 1 - (embedding <=> ?) AS score", embedding).
		OrderExpr("embedding <=> ?", embedding).
		Limit(topK).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	results := make([]store.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, store.Result{
			ID:         row.ID,
			Content:    row.Content,
			Similarity: row.Score,
		})
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().
		Model((*Document)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return err
}

func (s *Store) Count() (int, error) {
	return s.db.NewSelect().Model((*Document)(nil)).Count(context.Background())
}

func (s *Store) Close() error {
	return s.db.Close()
}
