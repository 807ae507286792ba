// Package graph stores records as Neo4j nodes and searches them through a
// native vector index.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/vectordb-crud/internal/driver"
	"github.com/agenthands/vectordb-crud/internal/vectorstore"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var _ vectorstore.Store = (*Store)(nil)

// candidateFactor widens the vector index lookup so the namespace filter
// still leaves topK hits.
const candidateFactor = 4

type Store struct {
	driver driver.GraphDriver
	spec   vectorstore.IndexSpec
}

func New(d driver.GraphDriver, spec vectorstore.IndexSpec) *Store {
	return &Store{driver: d, spec: spec}
}

func (s *Store) EnsureIndex(ctx context.Context) error {
	return s.driver.BuildIndices(ctx)
}

func (s *Store) Upsert(ctx context.Context, vectors ...vectorstore.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	records := make([]map[string]interface{}, 0, len(vectors))
	for _, v := range vectors {
		if err := s.spec.CheckDimension(v.Values); err != nil {
			return err
		}
		records = append(records, map[string]interface{}{
			"id":          v.ID,
			"title":       v.Metadata.Title,
			"description": v.Metadata.Description,
			"embedding":   toFloat64(v.Values),
		})
	}

	_, err := s.driver.ExecuteQuery(ctx, driver.UpsertRecordsQuery, map[string]interface{}{
		"namespace": s.spec.Namespace,
		"records":   records,
	})
	return err
}

func (s *Store) Update(ctx context.Context, v vectorstore.Vector) error {
	if err := s.spec.CheckDimension(v.Values); err != nil {
		return err
	}

	res, err := s.driver.ExecuteQuery(ctx, driver.UpdateRecordQuery, map[string]interface{}{
		"namespace":   s.spec.Namespace,
		"id":          v.ID,
		"title":       v.Metadata.Title,
		"description": v.Metadata.Description,
		"embedding":   toFloat64(v.Values),
	})
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("%w: %s", vectorstore.ErrNotFound, v.ID)
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, ids ...string) (map[string]vectorstore.Vector, error) {
	out := make(map[string]vectorstore.Vector, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	res, err := s.driver.ExecuteQuery(ctx, driver.FetchRecordsQuery, map[string]interface{}{
		"namespace": s.spec.Namespace,
		"ids":       ids,
	})
	if err != nil {
		return nil, err
	}

	for _, rec := range res.Records {
		v := recordToVector(rec)
		out[v.ID] = v
	}
	return out, nil
}

func (s *Store) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	if err := s.spec.CheckDimension(req.Vector); err != nil {
		return nil, err
	}

	res, err := s.driver.ExecuteQuery(ctx, driver.QueryRecordsQuery, map[string]interface{}{
		"index_name": s.spec.Name,
		"namespace":  s.spec.Namespace,
		"embedding":  toFloat64(req.Vector),
		"top_k":      req.TopK,
		"candidates": req.TopK * candidateFactor,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(res.Records))
	for _, rec := range res.Records {
		v := recordToVector(rec)
		score, _ := rec.Get("score")
		m := vectorstore.Match{
			ID:       v.ID,
			Score:    toFloat32(score),
			Metadata: v.Metadata,
		}
		if req.IncludeValues {
			m.Values = v.Values
		}
		matches = append(matches, m)
	}

	return vectorstore.RankMatches(matches, req.TopK), nil
}

// List pages by id; the cursor is the last id returned.
func (s *Store) List(ctx context.Context, opts vectorstore.ListOptions) (*vectorstore.Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	res, err := s.driver.ExecuteQuery(ctx, driver.ListRecordsQuery, map[string]interface{}{
		"namespace": s.spec.Namespace,
		"cursor":    opts.Cursor,
		"limit":     limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &vectorstore.Page{}
	for i, rec := range res.Records {
		if i == limit {
			page.NextCursor = page.Items[len(page.Items)-1].ID
			break
		}
		page.Items = append(page.Items, recordToVector(rec))
	}
	return page, nil
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.driver.ExecuteQuery(ctx, driver.DeleteRecordsQuery, map[string]interface{}{
		"namespace": s.spec.Namespace,
		"ids":       ids,
	})
	return err
}

func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

func recordToVector(rec *neo4j.Record) vectorstore.Vector {
	id, _ := rec.Get("id")
	title, _ := rec.Get("title")
	description, _ := rec.Get("description")
	embedding, _ := rec.Get("embedding")

	return vectorstore.Vector{
		ID:     asString(id),
		Values: fromList(embedding),
		Metadata: vectorstore.Metadata{
			Title:       asString(title),
			Description: asString(description),
		},
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, f := range in {
		out[i] = float64(f)
	}
	return out
}

func toFloat32(v any) float32 {
	switch n := v.(type) {
	case float64:
		return float32(n)
	case float32:
		return n
	case int64:
		return float32(n)
	}
	return 0
}

func fromList(v any) []float32 {
	switch list := v.(type) {
	case []float64:
		out := make([]float32, len(list))
		for i, f := range list {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, len(list))
		for i, f := range list {
			out[i] = toFloat32(f)
		}
		return out
	}
	return nil
}
