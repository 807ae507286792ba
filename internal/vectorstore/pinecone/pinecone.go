// Package pinecone implements vectorstore.Store on a Pinecone serverless index.
package pinecone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agenthands/vectordb-crud/internal/vectorstore"

	"github.com/pinecone-io/go-pinecone/v2/pinecone"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ vectorstore.Store = (*Store)(nil)

// controlPlane is the subset of *pinecone.Client used for index management.
type controlPlane interface {
	ListIndexes(ctx context.Context) ([]*pinecone.Index, error)
	CreateServerlessIndex(ctx context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error)
	DescribeIndex(ctx context.Context, idxName string) (*pinecone.Index, error)
}

// indexConnection is the subset of *pinecone.IndexConnection used for data operations.
type indexConnection interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	FetchVectors(ctx context.Context, ids []string) (*pinecone.FetchVectorsResponse, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	UpdateVector(ctx context.Context, in *pinecone.UpdateVectorRequest) error
	ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error)
	DeleteVectorsById(ctx context.Context, ids []string) error
	Close() error
}

type Store struct {
	spec   vectorstore.IndexSpec
	host   string
	logger *slog.Logger

	client  controlPlane
	connect func(host string) (indexConnection, error)

	// ReadyTimeout bounds how long EnsureIndex waits for a new index to come up.
	ReadyTimeout time.Duration
	PollInterval time.Duration

	mu   sync.RWMutex
	conn indexConnection
}

// New creates a store. host may be empty; it is then resolved by EnsureIndex.
func New(apiKey, host string, spec vectorstore.IndexSpec, logger *slog.Logger) (*Store, error) {
	if apiKey == "" {
		return nil, errors.New("pinecone: api key is required (PINECONE_API)")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone: failed to create client: %w", err)
	}

	s := newStore(client, host, spec, logger)
	s.connect = func(host string) (indexConnection, error) {
		return client.Index(pinecone.NewIndexConnParams{
			Host:      host,
			Namespace: spec.Namespace,
		})
	}
	return s, nil
}

func newStore(client controlPlane, host string, spec vectorstore.IndexSpec, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		spec:         spec,
		host:         host,
		logger:       logger.With("component", "pinecone", "index", spec.Name),
		client:       client,
		ReadyTimeout: 2 * time.Minute,
		PollInterval: 2 * time.Second,
	}
}

// EnsureIndex creates the serverless index if it does not exist, waits for it
// to become ready and opens the data-plane connection.
func (s *Store) EnsureIndex(ctx context.Context) error {
	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("pinecone: failed to list indexes: %w", err)
	}

	var idx *pinecone.Index
	for _, i := range indexes {
		if i != nil && i.Name == s.spec.Name {
			idx = i
			break
		}
	}

	if idx == nil {
		idx, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      s.spec.Name,
			Dimension: int32(s.spec.Dimension),
			Metric:    metric(s.spec.Metric),
			Cloud:     pinecone.Cloud(strings.ToLower(s.spec.Cloud)),
			Region:    s.spec.Region,
		})
		if err != nil {
			return fmt.Errorf("pinecone: failed to create index %q: %w", s.spec.Name, err)
		}
		s.logger.Info("index created successfully")
	} else {
		s.logger.Info("index already exist")
		if int(idx.Dimension) != s.spec.Dimension {
			return &vectorstore.ErrDimensionMismatch{Expected: s.spec.Dimension, Actual: int(idx.Dimension)}
		}
	}

	idx, err = s.waitReady(ctx, idx)
	if err != nil {
		return err
	}

	host := s.host
	if host == "" {
		host = idx.Host
	}

	conn, err := s.connect(host)
	if err != nil {
		return fmt.Errorf("pinecone: failed to connect to index host %q: %w", host, err)
	}

	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (s *Store) waitReady(ctx context.Context, idx *pinecone.Index) (*pinecone.Index, error) {
	if idx.Status != nil && idx.Status.Ready && idx.Host != "" {
		return idx, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("pinecone: index %q not ready: %w", s.spec.Name, ctx.Err())
		case <-ticker.C:
		}

		desc, err := s.client.DescribeIndex(ctx, s.spec.Name)
		if err != nil {
			return nil, fmt.Errorf("pinecone: failed to describe index %q: %w", s.spec.Name, err)
		}
		if desc.Status != nil && desc.Status.Ready && desc.Host != "" {
			return desc, nil
		}
		s.logger.Debug("waiting for index to become ready")
	}
}

func (s *Store) connection() (indexConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conn == nil {
		return nil, errors.New("pinecone: index connection not initialized, call EnsureIndex first")
	}
	return s.conn, nil
}

func (s *Store) Upsert(ctx context.Context, vectors ...vectorstore.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	conn, err := s.connection()
	if err != nil {
		return err
	}

	in := make([]*pinecone.Vector, 0, len(vectors))
	for _, v := range vectors {
		if err := s.spec.CheckDimension(v.Values); err != nil {
			return err
		}

		md, err := toMetadata(v.Metadata)
		if err != nil {
			return err
		}

		in = append(in, &pinecone.Vector{
			Id:       v.ID,
			Values:   v.Values,
			Metadata: md,
		})
	}

	if _, err := conn.UpsertVectors(ctx, in); err != nil {
		return fmt.Errorf("pinecone: upsert failed: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, v vectorstore.Vector) error {
	if err := s.spec.CheckDimension(v.Values); err != nil {
		return err
	}

	conn, err := s.connection()
	if err != nil {
		return err
	}

	md, err := toMetadata(v.Metadata)
	if err != nil {
		return err
	}

	err = conn.UpdateVector(ctx, &pinecone.UpdateVectorRequest{
		Id:       v.ID,
		Values:   v.Values,
		Metadata: md,
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", vectorstore.ErrNotFound, v.ID)
		}
		return fmt.Errorf("pinecone: update failed: %w", err)
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, ids ...string) (map[string]vectorstore.Vector, error) {
	result := make(map[string]vectorstore.Vector, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	conn, err := s.connection()
	if err != nil {
		return nil, err
	}

	res, err := conn.FetchVectors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("pinecone: fetch failed: %w", err)
	}

	for id, v := range res.Vectors {
		if v == nil {
			continue
		}
		result[id] = vectorstore.Vector{
			ID:       v.Id,
			Values:   v.Values,
			Metadata: fromMetadata(v.Metadata),
		}
	}
	return result, nil
}

func (s *Store) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	if err := s.spec.CheckDimension(req.Vector); err != nil {
		return nil, err
	}

	conn, err := s.connection()
	if err != nil {
		return nil, err
	}

	res, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          req.Vector,
		TopK:            uint32(req.TopK),
		IncludeValues:   req.IncludeValues,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone: query failed: %w", err)
	}

	matches := make([]vectorstore.Match, 0, len(res.Matches))
	for _, m := range res.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		match := vectorstore.Match{
			ID:       m.Vector.Id,
			Score:    m.Score,
			Metadata: fromMetadata(m.Vector.Metadata),
		}
		if req.IncludeValues {
			match.Values = m.Vector.Values
		}
		matches = append(matches, match)
	}

	return vectorstore.RankMatches(matches, req.TopK), nil
}

// List pages through ids with ListVectors, then fetches their metadata.
func (s *Store) List(ctx context.Context, opts vectorstore.ListOptions) (*vectorstore.Page, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}

	limit := uint32(opts.Limit)
	if limit == 0 {
		limit = 10
	}

	req := &pinecone.ListVectorsRequest{
		Limit: &limit,
	}
	if opts.Cursor != "" {
		req.PaginationToken = &opts.Cursor
	}

	res, err := conn.ListVectors(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("pinecone: list failed: %w", err)
	}

	ids := make([]string, 0, len(res.VectorIds))
	for _, id := range res.VectorIds {
		if id != nil {
			ids = append(ids, *id)
		}
	}

	page := &vectorstore.Page{}
	if res.NextPaginationToken != nil {
		page.NextCursor = *res.NextPaginationToken
	}

	if len(ids) == 0 {
		return page, nil
	}

	vectors, err := s.Fetch(ctx, ids...)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if v, ok := vectors[id]; ok {
			page.Items = append(page.Items, v)
		}
	}
	return page, nil
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	conn, err := s.connection()
	if err != nil {
		return err
	}

	if err := conn.DeleteVectorsById(ctx, ids); err != nil {
		return fmt.Errorf("pinecone: delete failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func metric(name string) pinecone.IndexMetric {
	switch strings.ToLower(name) {
	case "euclidean":
		return pinecone.Euclidean
	case "dotproduct":
		return pinecone.Dotproduct
	default:
		return pinecone.Cosine
	}
}

func toMetadata(md vectorstore.Metadata) (*pinecone.Metadata, error) {
	st, err := structpb.NewStruct(map[string]any{
		"title":       md.Title,
		"description": md.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone: invalid metadata: %w", err)
	}
	return st, nil
}

func fromMetadata(md *pinecone.Metadata) vectorstore.Metadata {
	if md == nil {
		return vectorstore.Metadata{}
	}
	return vectorstore.Metadata{
		Title:       md.GetFields()["title"].GetStringValue(),
		Description: md.GetFields()["description"].GetStringValue(),
	}
}

// isNotFound reports whether the data plane rejected the call with NotFound.
func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
