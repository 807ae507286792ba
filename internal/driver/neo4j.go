package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type VectorIndex struct {
	Name       string
	Dimension  int
	Similarity string
}

type Neo4jDriver struct {
	Driver neo4j.DriverWithContext
	Index  VectorIndex
	logger *slog.Logger
}

func NewNeo4jDriver(ctx context.Context, uri, username, password string, index VectorIndex, logger *slog.Logger) (*Neo4jDriver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	drv, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := drv.VerifyConnectivity(ctx); err != nil {
		_ = drv.Close(ctx)
		return nil, err
	}

	logger.Info("connected to neo4j", "uri", uri)
	return &Neo4jDriver{Driver: drv, Index: index, logger: logger}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices creates the lookup index and the vector index. Both
// statements are idempotent.
func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		CreateRecordLookupIndexQuery,
		VectorIndexQuery(d.Index),
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to build index: %w", err)
		}
	}

	d.logger.Info("neo4j indices ready", "index", d.Index.Name, "dimension", d.Index.Dimension)
	return nil
}
