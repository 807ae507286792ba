package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agenthands/vectordb-crud/internal/core"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/agenthands/vectordb-crud/internal/vectorstore"
)

// MockService keeps records in memory and fails inference calls on demand.
type MockService struct {
	mu           sync.Mutex
	Records      map[string]model.Record
	Matches      []model.Match
	InferenceErr error
	StoreErr     error
	LastList     vectorstore.ListOptions
	nextID       int
}

func NewMockService() *MockService {
	return &MockService{Records: map[string]model.Record{}}
}

func (m *MockService) CreateRecord(ctx context.Context, title, description string) (*model.Record, error) {
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", core.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec := model.Record{ID: fmt.Sprintf("id-%d", m.nextID), Title: title, Description: description, Values: []float32{1, 2}}
	m.Records[rec.ID] = rec
	return &rec, nil
}

func (m *MockService) ListRecords(ctx context.Context, opts vectorstore.ListOptions) (*model.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastList = opts
	if m.StoreErr != nil {
		return nil, m.StoreErr
	}

	ids := make([]string, 0, len(m.Records))
	for id := range m.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	page := &model.Page{Items: []model.RecordSummary{}}
	for i, id := range ids {
		if opts.Limit > 0 && i == opts.Limit {
			page.NextCursor = ids[i-1]
			break
		}
		r := m.Records[id]
		page.Items = append(page.Items, model.RecordSummary{ID: r.ID, Title: r.Title, Description: r.Description})
	}
	return page, nil
}

func (m *MockService) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return nil, m.StoreErr
	}
	rec, ok := m.Records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return &rec, nil
}

func (m *MockService) UpdateRecord(ctx context.Context, id, title, description string) (*model.Record, error) {
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", core.ErrValidation)
	}
	if _, err := m.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := model.Record{ID: id, Title: title, Description: description, Values: []float32{3, 4}}
	m.Records[id] = rec
	return &rec, nil
}

func (m *MockService) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Records, id)
	return nil
}

func (m *MockService) SearchRecords(ctx context.Context, query string) ([]model.Match, error) {
	if m.InferenceErr != nil {
		return nil, &core.InferenceError{Capability: "embedding", Err: m.InferenceErr}
	}
	if m.Matches == nil {
		return []model.Match{}, nil
	}
	return m.Matches, nil
}

func (m *MockService) enrich(id, capability string) error {
	if _, err := m.GetRecord(context.Background(), id); err != nil {
		return err
	}
	if m.InferenceErr != nil {
		return &core.InferenceError{Capability: capability, Err: m.InferenceErr}
	}
	return nil
}

func (m *MockService) Summarize(ctx context.Context, id string) (model.Summary, error) {
	if err := m.enrich(id, "summarization"); err != nil {
		return model.Summary{}, err
	}
	return model.Summary{SummaryText: "summary of " + id}, nil
}

func (m *MockService) TextToSpeech(ctx context.Context, id string) (model.Media, error) {
	if err := m.enrich(id, "speech"); err != nil {
		return model.Media{}, err
	}
	return model.Media{
		Data:        []byte("ID3audio"),
		ContentType: "audio/mpeg",
		Artifact:    &model.Artifact{Name: "audio/" + id + "-abc.mp3"},
	}, nil
}

func (m *MockService) TextToImage(ctx context.Context, id string) (model.Media, error) {
	if err := m.enrich(id, "image"); err != nil {
		return model.Media{}, err
	}
	return model.Media{Data: []byte("jpeg"), ContentType: "image/jpeg"}, nil
}

func (m *MockService) Classify(ctx context.Context, id string) ([]model.Label, error) {
	if err := m.enrich(id, "classification"); err != nil {
		return nil, err
	}
	return []model.Label{{Label: "Aerospace", Score: 0.7}}, nil
}

type MockObserver struct {
	mu     sync.Mutex
	Routes []string
}

func (m *MockObserver) ObserveRequest(method, route string, code int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Routes = append(m.Routes, fmt.Sprintf("%s %s %d", method, route, code))
}
