// Package local is an embedded vector store backed by SQLite through gorm.
// Similarity is computed in process by scanning the namespace, which is fine
// for development and small collections.
package local

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agenthands/vectordb-crud/internal/vectorstore"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
)

var _ vectorstore.Store = (*Store)(nil)

type Store struct {
	db   *gorm.DB
	spec vectorstore.IndexSpec
}

type RecordModel struct {
	ID        string `gorm:"primaryKey"`
	Namespace string `gorm:"primaryKey"`

	Vector   datatypes.JSONSlice[float32]
	Metadata datatypes.JSONType[vectorstore.Metadata]

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RecordModel) TableName() string {
	return "records"
}

func New(path string, spec vectorstore.IndexSpec) (*Store, error) {
	db, err := gorm.Open(gormlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database '%s': %w", path, err)
	}

	sqlDB, err := db.DB()

	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	return &Store{
		db:   db,
		spec: spec,
	}, nil
}

func (s *Store) EnsureIndex(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&RecordModel{}); err != nil {
		return fmt.Errorf("failed to migrate records table: %w", err)
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
			ID:        v.ID,
			Namespace: s.spec.Namespace,

			Vector:   datatypes.NewJSONSlice(v.Values),
			Metadata: datatypes.NewJSONType(v.Metadata),
		})
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&models)

	return result.Error
}

func (s *Store) Update(ctx context.Context, v vectorstore.Vector) error {
	if err := s.spec.CheckDimension(v.Values); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&RecordModel{}).
		Where("namespace = ? AND id = ?", s.spec.Namespace, v.ID).
		Updates(map[string]any{
			"vector":     datatypes.NewJSONSlice(v.Values),
			"metadata":   datatypes.NewJSONType(v.Metadata),
			"updated_at": time.Now().UTC(),
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

	if err := s.db.WithContext(ctx).Where("namespace = ? AND id IN ?", s.spec.Namespace, ids).Find(&models).Error; err != nil {
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

	var models []RecordModel
	matches := []vectorstore.Match{}

	result := s.db.WithContext(ctx).
		Where("namespace = ?", s.spec.Namespace).
		FindInBatches(&models, 100, func(tx *gorm.DB, batch int) error {
			for _, m := range models {
				score, err := vectorstore.CosineSimilarity(req.Vector, m.Vector)

				if err != nil {
					return err
				}

				match := vectorstore.Match{
					ID:       m.ID,
					Score:    float32(score),
					Metadata: m.Metadata.Data(),
				}

				if req.IncludeValues {
					match.Values = m.Vector
				}

				matches = append(matches, match)
			}

			return nil
		})

	if result.Error != nil {
		return nil, result.Error
	}

	return vectorstore.RankMatches(matches, req.TopK), nil
}

type cursor struct {
	Offset int `json:"offset"`
}

func (s *Store) List(ctx context.Context, opts vectorstore.ListOptions) (*vectorstore.Page, error) {
	limit := opts.Limit

	if limit <= 0 {
		limit = 10
	}

	var offset int

	if opts.Cursor != "" {
		var c cursor

		data, err := base64.StdEncoding.DecodeString(opts.Cursor)

		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}

		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}

		offset = c.Offset
	}

	var models []RecordModel

	// one extra row tells us whether another page exists
	result := s.db.WithContext(ctx).
		Where("namespace = ?", s.spec.Namespace).
		Order("id").
		Offset(offset).
		Limit(limit + 1).
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	page := &vectorstore.Page{}

	for i, m := range models {
		if i == limit {
			data, _ := json.Marshal(cursor{Offset: offset + limit})
			page.NextCursor = base64.StdEncoding.EncodeToString(data)
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

	result := s.db.WithContext(ctx).
		Where("namespace = ? AND id IN ?", s.spec.Namespace, ids).
		Delete(&RecordModel{})

	return result.Error
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
		ID:       m.ID,
		Values:   m.Vector,
		Metadata: m.Metadata.Data(),
	}
}
