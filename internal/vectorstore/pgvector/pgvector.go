// Package pgvector implements vectorstore.Store on Postgres with the pgvector extension.
package pgvector

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agenthands/vectordb-crud/internal/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ vectorstore.Store = (*Store)(nil)

type Store struct {
	db    *gorm.DB
	spec  vectorstore.IndexSpec
	table string
}

type RecordModel struct {
	ID          string `gorm:"primaryKey"`
	Namespace   string `gorm:"primaryKey"`
	Title       string
	Description string
	Embedding   pgvector.Vector
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type scoredRow struct {
	ID          string
	Title       string
	Description string
	Embedding   pgvector.Vector
	Score       float64
}

func New(dsn string, spec vectorstore.IndexSpec) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("pgvector: failed to connect database: %w", err)
	}

	return NewWithDB(db, spec), nil
}

func NewWithDB(db *gorm.DB, spec vectorstore.IndexSpec) *Store {
	return &Store{
		db:    db,
		spec:  spec,
		table: TableName(spec.Name),
	}
}

var invalidIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// TableName derives a safe SQL identifier from the index name.
func TableName(indexName string) string {
	name := invalidIdent.ReplaceAllString(strings.ToLower(indexName), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "records"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}

func opsClass(metric string) string {
	switch strings.ToLower(metric) {
	case "euclidean":
		return "vector_l2_ops"
	case "dotproduct":
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}

func (s *Store) EnsureIndex(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("pgvector: failed to create extension: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id text NOT NULL,
		namespace text NOT NULL,
		title text NOT NULL DEFAULT '',
		description text NOT NULL DEFAULT '',
		embedding vector(%d) NOT NULL,
		created_at timestamptz,
		updated_at timestamptz,
		PRIMARY KEY (namespace, id)
	)`, s.table, s.spec.Dimension)

	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("pgvector: failed to create table: %w", err)
	}

	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding %s)",
		s.table, s.table, opsClass(s.spec.Metric))

	if err := db.Exec(idx).Error; err != nil {
		return fmt.Errorf("pgvector: failed to create index: %w", err)
	}

	return nil
}

func (s *Store) Upsert(ctx context.Context, vectors ...vectorstore.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	models := make([]RecordModel, 0, len(vectors))
	for _, v := range vectors {
		if err := s.spec.CheckDimension(v.Values); err != nil {
			return err
		}
		models = append(models, RecordModel{
			ID:          v.ID,
			Namespace:   s.spec.Namespace,
			Title:       v.Metadata.Title,
			Description: v.Metadata.Description,
			Embedding:   pgvector.NewVector(v.Values),
		})
	}

	return s.db.WithContext(ctx).Table(s.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "embedding", "updated_at"}),
	}).Create(&models).Error
}

func (s *Store) Update(ctx context.Context, v vectorstore.Vector) error {
	if err := s.spec.CheckDimension(v.Values); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Table(s.table).
		Where("namespace = ? AND id = ?", s.spec.Namespace, v.ID).
		Updates(map[string]any{
			"title":       v.Metadata.Title,
			"description": v.Metadata.Description,
			"embedding":   pgvector.NewVector(v.Values),
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", vectorstore.ErrNotFound, v.ID)
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, ids ...string) (map[string]vectorstore.Vector, error) {
	result := make(map[string]vectorstore.Vector, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []RecordModel
	err := s.db.WithContext(ctx).Table(s.table).
		Where("namespace = ? AND id IN ?", s.spec.Namespace, ids).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for _, m := range models {
		result[m.ID] = toVector(m)
	}
	return result, nil
}

func (s *Store) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	if err := s.spec.CheckDimension(req.Vector); err != nil {
		return nil, err
	}

	query := pgvector.NewVector(req.Vector)

	var rows []scoredRow
	err := s.db.WithContext(ctx).Table(s.table).
		Select("id, title, description, embedding, 1 - (embedding <=> ?) AS score", query).
		Where("namespace = ?", s.spec.Namespace).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []any{query}},
		}).
		Limit(req.TopK).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(rows))
	for _, r := range rows {
		m := vectorstore.Match{
			ID:    r.ID,
			Score: float32(r.Score),
			Metadata: vectorstore.Metadata{
				Title:       r.Title,
				Description: r.Description,
			},
		}
		if req.IncludeValues {
			m.Values = r.Embedding.Slice()
		}
		matches = append(matches, m)
	}

	return vectorstore.RankMatches(matches, req.TopK), nil
}

// List uses keyset pagination; the cursor is the last id of the previous page.
func (s *Store) List(ctx context.Context, opts vectorstore.ListOptions) (*vectorstore.Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	q := s.db.WithContext(ctx).Table(s.table).Where("namespace = ?", s.spec.Namespace)
	if opts.Cursor != "" {
		q = q.Where("id > ?", opts.Cursor)
	}

	var models []RecordModel
	if err := q.Order("id").Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, err
	}

	page := &vectorstore.Page{}
	for i, m := range models {
		if i == limit {
			page.NextCursor = models[i-1].ID
			break
		}
		page.Items = append(page.Items, toVector(m))
	}
	return page, nil
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Table(s.table).
		Where("namespace = ? AND id IN ?", s.spec.Namespace, ids).
		Delete(&RecordModel{}).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toVector(m RecordModel) vectorstore.Vector {
	return vectorstore.Vector{
		ID:     m.ID,
		Values: m.Embedding.Slice(),
		Metadata: vectorstore.Metadata{
			Title:       m.Title,
			Description: m.Description,
		},
	}
}
