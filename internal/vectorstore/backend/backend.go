// Package backend opens the vector store selected in configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenthands/vectordb-crud/internal/config"
	"github.com/agenthands/vectordb-crud/internal/driver"
	"github.com/agenthands/vectordb-crud/internal/vectorstore"
	"github.com/agenthands/vectordb-crud/internal/vectorstore/graph"
	"github.com/agenthands/vectordb-crud/internal/vectorstore/local"
	"github.com/agenthands/vectordb-crud/internal/vectorstore/pgvector"
	"github.com/agenthands/vectordb-crud/internal/vectorstore/pinecone"
)

func Spec(cfg config.VectorStoreConfig) vectorstore.IndexSpec {
	return vectorstore.IndexSpec{
		Name:      cfg.IndexName,
		Namespace: cfg.Namespace,
		Dimension: cfg.Dimension,
		Metric:    cfg.Metric,
		Cloud:     cfg.Cloud,
		Region:    cfg.Region,
	}
}

// Open connects to the configured backend. The index is not created here;
// callers run EnsureIndex.
func Open(ctx context.Context, cfg config.VectorStoreConfig, logger *slog.Logger) (vectorstore.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	spec := Spec(cfg)

	switch strings.ToLower(cfg.Provider) {
	case "pinecone":
		return pinecone.New(cfg.APIKey, cfg.Host, spec, logger)
	case "local":
		logger.Info("using local vector store", "path", cfg.Path)
		return local.New(cfg.Path, spec)
	case "pgvector":
		return pgvector.New(cfg.DSN, spec)
	case "neo4j":
		d, err := driver.NewNeo4jDriver(ctx, cfg.URI, cfg.User, cfg.Password, driver.VectorIndex{
			Name:       cfg.IndexName,
			Dimension:  cfg.Dimension,
			Similarity: cfg.Metric,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
		}
		return graph.New(d, spec), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.Provider)
	}
}
