package pinecone

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/agenthands/vectordb-crud/internal/vectorstore"
	"github.com/pinecone-io/go-pinecone/v2/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type mockControlPlane struct {
	Indexes   []*pinecone.Index
	Created   *pinecone.CreateServerlessIndexRequest
	Described int
	Ready     *pinecone.Index
}

func (m *mockControlPlane) ListIndexes(ctx context.Context) ([]*pinecone.Index, error) {
	return m.Indexes, nil
}

func (m *mockControlPlane) CreateServerlessIndex(ctx context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error) {
	m.Created = in
	return &pinecone.Index{Name: in.Name, Dimension: in.Dimension}, nil
}

func (m *mockControlPlane) DescribeIndex(ctx context.Context, name string) (*pinecone.Index, error) {
	m.Described++
	return m.Ready, nil
}

type mockConn struct {
	Upserted    []*pinecone.Vector
	Updated     *pinecone.UpdateVectorRequest
	UpdateErr   error
	Fetched     map[string]*pinecone.Vector
	QueryResult *pinecone.QueryVectorsResponse
	QueryReq    *pinecone.QueryByVectorValuesRequest
	ListResult  *pinecone.ListVectorsResponse
	ListReq     *pinecone.ListVectorsRequest
	Deleted     []string
	Closed      bool
}

func (m *mockConn) UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error) {
	m.Upserted = append(m.Upserted, in...)
	return uint32(len(in)), nil
}

func (m *mockConn) FetchVectors(ctx context.Context, ids []string) (*pinecone.FetchVectorsResponse, error) {
	res := &pinecone.FetchVectorsResponse{Vectors: map[string]*pinecone.Vector{}}
	for _, id := range ids {
		if v, ok := m.Fetched[id]; ok {
			res.Vectors[id] = v
		}
	}
	return res, nil
}

func (m *mockConn) QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	m.QueryReq = in
	return m.QueryResult, nil
}

func (m *mockConn) UpdateVector(ctx context.Context, in *pinecone.UpdateVectorRequest) error {
	m.Updated = in
	return m.UpdateErr
}

func (m *mockConn) ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error) {
	m.ListReq = in
	return m.ListResult, nil
}

func (m *mockConn) DeleteVectorsById(ctx context.Context, ids []string) error {
	m.Deleted = append(m.Deleted, ids...)
	return nil
}

func (m *mockConn) Close() error {
	m.Closed = true
	return nil
}

var testSpec = vectorstore.IndexSpec{
	Name:      "vectordb-crud",
	Namespace: "vDB",
	Dimension: 3,
	Metric:    "cosine",
	Cloud:     "aws",
	Region:    "us-east-1",
}

func newTestStore(cp *mockControlPlane, conn *mockConn) (*Store, *string) {
	s := newStore(cp, "", testSpec, nil)
	s.PollInterval = time.Millisecond
	s.ReadyTimeout = time.Second

	var connectedHost string
	s.connect = func(host string) (indexConnection, error) {
		connectedHost = host
		return conn, nil
	}
	return s, &connectedHost
}

func mustMetadata(t *testing.T, title, description string) *pinecone.Metadata {
	t.Helper()
	md, err := toMetadata(vectorstore.Metadata{Title: title, Description: description})
	require.NoError(t, err)
	return md
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	cp := &mockControlPlane{
		Indexes: []*pinecone.Index{{Name: "other"}},
		Ready:   &pinecone.Index{Name: "vectordb-crud", Host: "idx.pinecone.io", Status: &pinecone.IndexStatus{Ready: true}},
	}
	s, host := newTestStore(cp, &mockConn{})

	err := s.EnsureIndex(context.Background())

	require.NoError(t, err)
	require.NotNil(t, cp.Created)
	assert.Equal(t, "vectordb-crud", cp.Created.Name)
	assert.Equal(t, int32(3), cp.Created.Dimension)
	assert.Equal(t, pinecone.Cosine, cp.Created.Metric)
	assert.Equal(t, pinecone.Aws, cp.Created.Cloud)
	assert.Equal(t, "us-east-1", cp.Created.Region)
	assert.Equal(t, 1, cp.Described)
	assert.Equal(t, "idx.pinecone.io", *host)
}

func TestEnsureIndex_ExistingIndex(t *testing.T) {
	cp := &mockControlPlane{
		Indexes: []*pinecone.Index{{
			Name:      "vectordb-crud",
			Dimension: 3,
			Host:      "existing.pinecone.io",
			Status:    &pinecone.IndexStatus{Ready: true},
		}},
	}
	s, host := newTestStore(cp, &mockConn{})

	require.NoError(t, s.EnsureIndex(context.Background()))
	assert.Nil(t, cp.Created)
	assert.Equal(t, 0, cp.Described)
	assert.Equal(t, "existing.pinecone.io", *host)
}

func TestEnsureIndex_DimensionMismatch(t *testing.T) {
	cp := &mockControlPlane{
		Indexes: []*pinecone.Index{{Name: "vectordb-crud", Dimension: 1536, Status: &pinecone.IndexStatus{Ready: true}}},
	}
	s, _ := newTestStore(cp, &mockConn{})

	err := s.EnsureIndex(context.Background())
	var dm *vectorstore.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func ready(t *testing.T, conn *mockConn) *Store {
	t.Helper()
	cp := &mockControlPlane{
		Indexes: []*pinecone.Index{{Name: "vectordb-crud", Dimension: 3, Host: "h", Status: &pinecone.IndexStatus{Ready: true}}},
	}
	s, _ := newTestStore(cp, conn)
	require.NoError(t, s.EnsureIndex(context.Background()))
	return s
}

func TestUpsert(t *testing.T) {
	conn := &mockConn{}
	s := ready(t, conn)

	err := s.Upsert(context.Background(), vectorstore.Vector{
		ID:       "id-1",
		Values:   []float32{1, 2, 3},
		Metadata: vectorstore.Metadata{Title: "A", Description: "B"},
	})

	require.NoError(t, err)
	require.Len(t, conn.Upserted, 1)
	assert.Equal(t, "id-1", conn.Upserted[0].Id)
	assert.Equal(t, "A", conn.Upserted[0].Metadata.GetFields()["title"].GetStringValue())
}

func TestUpsert_BeforeEnsureIndex(t *testing.T) {
	s, _ := newTestStore(&mockControlPlane{}, &mockConn{})

	err := s.Upsert(context.Background(), vectorstore.Vector{ID: "x", Values: []float32{1, 2, 3}})
	assert.Error(t, err)
}

func TestUpdate_NotFound(t *testing.T) {
	conn := &mockConn{UpdateErr: fmt.Errorf("update: %w", status.Error(codes.NotFound, "Vector not found"))}
	s := ready(t, conn)

	err := s.Update(context.Background(), vectorstore.Vector{ID: "x", Values: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, vectorstore.ErrNotFound)
}

func TestUpdate_OtherErrorsAreNotNotFound(t *testing.T) {
	for name, updateErr := range map[string]error{
		"text mentions 404":       errors.New("upstream proxy returned 404 page"),
		"text mentions not found": errors.New("index host not found in DNS"),
		"grpc unavailable":        status.Error(codes.Unavailable, "connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			s := ready(t, &mockConn{UpdateErr: updateErr})

			err := s.Update(context.Background(), vectorstore.Vector{ID: "x", Values: []float32{1, 2, 3}})
			require.Error(t, err)
			assert.NotErrorIs(t, err, vectorstore.ErrNotFound)
		})
	}
}

func TestQuery(t *testing.T) {
	conn := &mockConn{
		QueryResult: &pinecone.QueryVectorsResponse{
			Matches: []*pinecone.ScoredVector{
				{Vector: &pinecone.Vector{Id: "b", Metadata: mustMetadata(t, "tb", "db")}, Score: 0.4},
				{Vector: &pinecone.Vector{Id: "a", Metadata: mustMetadata(t, "ta", "da")}, Score: 0.9},
			},
		},
	}
	s := ready(t, conn)

	matches, err := s.Query(context.Background(), vectorstore.QueryRequest{Vector: []float32{1, 0, 0}, TopK: 10})

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "ta", matches[0].Metadata.Title)
	assert.Equal(t, uint32(10), conn.QueryReq.TopK)
	assert.True(t, conn.QueryReq.IncludeMetadata)
}

func TestList(t *testing.T) {
	id1, id2, next := "a", "b", "token-2"
	conn := &mockConn{
		ListResult: &pinecone.ListVectorsResponse{
			VectorIds:           []*string{&id1, &id2},
			NextPaginationToken: &next,
		},
		Fetched: map[string]*pinecone.Vector{
			"a": {Id: "a", Metadata: mustMetadata(t, "ta", "da")},
			"b": {Id: "b", Metadata: mustMetadata(t, "tb", "db")},
		},
	}
	s := ready(t, conn)

	page, err := s.List(context.Background(), vectorstore.ListOptions{Limit: 2, Cursor: "token-1"})

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)
	assert.Equal(t, "tb", page.Items[1].Metadata.Title)
	assert.Equal(t, "token-2", page.NextCursor)
	assert.Equal(t, uint32(2), *conn.ListReq.Limit)
	assert.Equal(t, "token-1", *conn.ListReq.PaginationToken)
}

func TestDeleteAndClose(t *testing.T) {
	conn := &mockConn{}
	s := ready(t, conn)

	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.Equal(t, []string{"a"}, conn.Deleted)

	require.NoError(t, s.Close())
	assert.True(t, conn.Closed)
}
