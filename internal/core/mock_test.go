package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/agenthands/vectordb-crud/internal/inference"
	"github.com/agenthands/vectordb-crud/internal/vectorstore"
)

// MockStore is an in-memory vectorstore.Store.
type MockStore struct {
	mu       sync.Mutex
	Vectors  map[string]vectorstore.Vector
	Matches  []vectorstore.Match
	Err      error
	Upserts  int
	LastList vectorstore.ListOptions
	LastTopK int
}

func NewMockStore() *MockStore {
	return &MockStore{Vectors: map[string]vectorstore.Vector{}}
}

func (m *MockStore) EnsureIndex(ctx context.Context) error { return m.Err }

func (m *MockStore) Upsert(ctx context.Context, vectors ...vectorstore.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, v := range vectors {
		m.Vectors[v.ID] = v
		m.Upserts++
	}
	return nil
}

func (m *MockStore) Update(ctx context.Context, v vectorstore.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Vectors[v.ID]; !ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrNotFound, v.ID)
	}
	m.Vectors[v.ID] = v
	return nil
}

func (m *MockStore) Fetch(ctx context.Context, ids ...string) (map[string]vectorstore.Vector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := map[string]vectorstore.Vector{}
	for _, id := range ids {
		if v, ok := m.Vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (m *MockStore) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastTopK = req.TopK
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]vectorstore.Match(nil), m.Matches...), nil
}

func (m *MockStore) List(ctx context.Context, opts vectorstore.ListOptions) (*vectorstore.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastList = opts
	if m.Err != nil {
		return nil, m.Err
	}

	ids := make([]string, 0, len(m.Vectors))
	for id := range m.Vectors {
		if id > opts.Cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	page := &vectorstore.Page{}
	for i, id := range ids {
		if i == opts.Limit {
			page.NextCursor = ids[i-1]
			break
		}
		page.Items = append(page.Items, m.Vectors[id])
	}
	return page, nil
}

func (m *MockStore) Delete(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, id := range ids {
		delete(m.Vectors, id)
	}
	return nil
}

func (m *MockStore) Close() error { return nil }

// MockEmbedder derives a deterministic vector from the text length so
// different texts get different embeddings.
type MockEmbedder struct {
	Dimension int
	Vector    []float32
	Err       error
	Calls     []string
	mu        sync.Mutex
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, text)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Vector != nil {
		return m.Vector, nil
	}
	vec := make([]float32, m.Dimension)
	for i := range vec {
		vec[i] = float32(len(text) + i)
	}
	return vec, nil
}

type MockSummarizer struct {
	Summary   model.Summary
	Err       error
	Text      string
	MaxLength int
}

func (m *MockSummarizer) Summarize(ctx context.Context, text string, maxLength int) (model.Summary, error) {
	m.Text = text
	m.MaxLength = maxLength
	return m.Summary, m.Err
}

type MockMedia struct {
	Media model.Media
	Err   error
}

func (m *MockMedia) Synthesize(ctx context.Context, text string) (model.Media, error) {
	return m.Media, m.Err
}

func (m *MockMedia) GenerateImage(ctx context.Context, prompt string) (model.Media, error) {
	return m.Media, m.Err
}

type MockClassifier struct {
	Labels []model.Label
	Err    error
}

func (m *MockClassifier) Classify(ctx context.Context, text string) ([]model.Label, error) {
	return m.Labels, m.Err
}

type MockArtifacts struct {
	mu    sync.Mutex
	Names []string
	Err   error
}

func (m *MockArtifacts) Put(ctx context.Context, name, contentType string, data []byte) (model.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Artifact{}, m.Err
	}
	m.Names = append(m.Names, name)
	return model.Artifact{Name: name, ContentType: contentType, Size: int64(len(data))}, nil
}

type MockMetrics struct {
	mu    sync.Mutex
	Calls []string
}

func (m *MockMetrics) RecordCall(collaborator, operation string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Calls = append(m.Calls, collaborator+"."+operation+":"+status)
}

type fixture struct {
	svc        *Service
	store      *MockStore
	embedder   *MockEmbedder
	summarizer *MockSummarizer
	speech     *MockMedia
	image      *MockMedia
	classifier *MockClassifier
	artifacts  *MockArtifacts
	metrics    *MockMetrics
}

func newFixture() *fixture {
	f := &fixture{
		store:      NewMockStore(),
		embedder:   &MockEmbedder{Dimension: 4},
		summarizer: &MockSummarizer{Summary: model.Summary{SummaryText: "short"}},
		speech:     &MockMedia{Media: model.Media{Data: []byte("mp3")}},
		image:      &MockMedia{Media: model.Media{Data: []byte("jpg"), ContentType: "image/jpeg"}},
		classifier: &MockClassifier{Labels: []model.Label{{Label: "Software", Score: 0.9}}},
		artifacts:  &MockArtifacts{},
		metrics:    &MockMetrics{},
	}

	suite := &inference.Suite{
		Embedder:   f.embedder,
		Summarizer: f.summarizer,
		Speech:     f.speech,
		Image:      f.image,
		Classifier: f.classifier,
	}

	f.svc = NewService(f.store, suite, f.artifacts, Options{
		Dimension: 4,
		Metrics:   f.metrics,
	})

	counter := 0
	f.svc.IDGenerator = func() string {
		counter++
		return fmt.Sprintf("uuid-%d", counter)
	}
	return f
}
