//go:build integration

package integration

import (
	"os"
	"testing"

	"github.com/agenthands/vectordb-crud/internal/config"
	"github.com/joho/godotenv"
)

// liveConfig loads ../../.env and the environment on top of the defaults.
func liveConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")

	cfg := config.Default()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg
}
