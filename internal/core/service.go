package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agenthands/vectordb-crud/internal/artifact"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/agenthands/vectordb-crud/internal/inference"
	"github.com/agenthands/vectordb-crud/internal/vectorstore"
	"github.com/google/uuid"
)

const (
	DefaultTopK             = 10
	DefaultListLimit        = 10
	DefaultSummaryMaxLength = 40
)

type Options struct {
	Dimension        int
	ListLimit        int
	SummaryMaxLength int
	Logger           *slog.Logger
	Metrics          MetricsCollector
}

// Service implements record CRUD, similarity search and enrichment on top of
// a vector store and a set of inference capabilities.
type Service struct {
	Store     vectorstore.Store
	Inference *inference.Suite
	Artifacts artifact.Store
	Metrics   MetricsCollector
	Logger    *slog.Logger

	Dimension        int
	TopK             int
	ListLimit        int
	SummaryMaxLength int

	// IDGenerator returns new record ids. Tests replace it.
	IDGenerator func() string
}

func NewService(store vectorstore.Store, suite *inference.Suite, artifacts artifact.Store, opts Options) *Service {
	s := &Service{
		Store:            store,
		Inference:        suite,
		Artifacts:        artifacts,
		Metrics:          opts.Metrics,
		Logger:           opts.Logger,
		Dimension:        opts.Dimension,
		TopK:             DefaultTopK,
		ListLimit:        opts.ListLimit,
		SummaryMaxLength: opts.SummaryMaxLength,
		IDGenerator:      uuid.NewString,
	}
	if s.Metrics == nil {
		s.Metrics = NoopMetricsCollector{}
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Artifacts == nil {
		s.Artifacts = artifact.Discard{}
	}
	if s.ListLimit <= 0 {
		s.ListLimit = DefaultListLimit
	}
	if s.SummaryMaxLength <= 0 {
		s.SummaryMaxLength = DefaultSummaryMaxLength
	}
	return s
}

func (s *Service) observe(collaborator, operation string, start time.Time, err error) {
	s.Metrics.RecordCall(collaborator, operation, time.Since(start), err)
}

// inferenceFailure logs and wraps a provider error. It is the only place
// inference failures are logged.
func (s *Service) inferenceFailure(ctx context.Context, capability, recordID string, err error) error {
	s.Logger.ErrorContext(ctx, "inference call failed",
		"capability", capability,
		"record_id", recordID,
		"error", err,
	)
	return &InferenceError{Capability: capability, Err: err}
}

func validateText(title, description string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return validationError("title and description are required")
	}
	return nil
}

// embed turns text into a vector and checks it against the index dimension.
func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := s.Inference.Embedder.Embed(ctx, text)
	s.observe("inference", "embed", start, err)
	if err != nil {
		return nil, s.inferenceFailure(ctx, "embedding", "", err)
	}
	if len(vec) == 0 {
		return nil, s.inferenceFailure(ctx, "embedding", "", ErrEmptyResult)
	}
	if s.Dimension > 0 && len(vec) != s.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.Dimension, len(vec))
	}
	return vec, nil
}

// storeError maps vector store errors onto the service's sentinels.
func storeError(op string, err error) error {
	var dm *vectorstore.ErrDimensionMismatch
	switch {
	case errors.As(err, &dm):
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dm.Expected, dm.Actual)
	case errors.Is(err, vectorstore.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (s *Service) CreateRecord(ctx context.Context, title, description string) (*model.Record, error) {
	if err := validateText(title, description); err != nil {
		return nil, err
	}

	vec, err := s.embed(ctx, title+description)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{
		ID:          s.IDGenerator(),
		Title:       title,
		Description: description,
		Values:      vec,
	}

	start := time.Now()
	err = s.Store.Upsert(ctx, vectorstore.Vector{
		ID:       rec.ID,
		Values:   vec,
		Metadata: vectorstore.Metadata{Title: title, Description: description},
	})
	s.observe("vectorstore", "upsert", start, err)
	if err != nil {
		return nil, storeError("store record", err)
	}

	s.Logger.InfoContext(ctx, "record created", "record_id", rec.ID)
	return rec, nil
}

// ListRecords returns one page of records. Limits outside (0, ListLimit]
// fall back to ListLimit.
func (s *Service) ListRecords(ctx context.Context, opts vectorstore.ListOptions) (*model.Page, error) {
	if opts.Limit <= 0 || opts.Limit > s.ListLimit {
		opts.Limit = s.ListLimit
	}

	start := time.Now()
	page, err := s.Store.List(ctx, opts)
	s.observe("vectorstore", "list", start, err)
	if err != nil {
		return nil, storeError("list records", err)
	}

	out := &model.Page{
		Items:      make([]model.RecordSummary, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, v := range page.Items {
		out.Items = append(out.Items, model.RecordSummary{
			ID:          v.ID,
			Title:       v.Metadata.Title,
			Description: v.Metadata.Description,
		})
	}
	return out, nil
}

func (s *Service) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validationError("id is required")
	}

	start := time.Now()
	found, err := s.Store.Fetch(ctx, id)
	s.observe("vectorstore", "fetch", start, err)
	if err != nil {
		return nil, storeError("fetch record", err)
	}

	v, ok := found[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return &model.Record{
		ID:          v.ID,
		Title:       v.Metadata.Title,
		Description: v.Metadata.Description,
		Values:      v.Values,
	}, nil
}

// UpdateRecord replaces the text of an existing record and recomputes its
// embedding.
func (s *Service) UpdateRecord(ctx context.Context, id, title, description string) (*model.Record, error) {
	if err := validateText(title, description); err != nil {
		return nil, err
	}
	if _, err := s.GetRecord(ctx, id); err != nil {
		return nil, err
	}

	vec, err := s.embed(ctx, title+description)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.Store.Update(ctx, vectorstore.Vector{
		ID:       id,
		Values:   vec,
		Metadata: vectorstore.Metadata{Title: title, Description: description},
	})
	s.observe("vectorstore", "update", start, err)
	if err != nil {
		return nil, storeError("update record", err)
	}

	s.Logger.InfoContext(ctx, "record updated", "record_id", id)
	return &model.Record{ID: id, Title: title, Description: description, Values: vec}, nil
}

// DeleteRecord removes a record. Deleting an unknown id succeeds.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("id is required")
	}

	start := time.Now()
	err := s.Store.Delete(ctx, id)
	s.observe("vectorstore", "delete", start, err)
	if err != nil {
		return storeError("delete record", err)
	}

	s.Logger.InfoContext(ctx, "record deleted", "record_id", id)
	return nil
}

// SearchRecords returns up to TopK records closest to query, best first.
func (s *Service) SearchRecords(ctx context.Context, query string) ([]model.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, validationError("query is required")
	}

	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	matches, err := s.Store.Query(ctx, vectorstore.QueryRequest{Vector: vec, TopK: s.TopK})
	s.observe("vectorstore", "query", start, err)
	if err != nil {
		return nil, storeError("search records", err)
	}

	matches = vectorstore.RankMatches(matches, s.TopK)

	out := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, model.Match{
			ID:    m.ID,
			Score: m.Score,
			Metadata: model.RecordMetadata{
				Title:       m.Metadata.Title,
				Description: m.Metadata.Description,
			},
		})
	}
	return out, nil
}
