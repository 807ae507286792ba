package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorIndexQuery(t *testing.T) {
	q := VectorIndexQuery(VectorIndex{Name: "vectordb-crud", Dimension: 384, Similarity: "cosine"})

	assert.Contains(t, q, "CREATE VECTOR INDEX `vectordb-crud` IF NOT EXISTS")
	assert.Contains(t, q, "`vector.dimensions`: 384")
	assert.Contains(t, q, "'cosine'")
}

func TestVectorIndexQuery_StripsBackticks(t *testing.T) {
	q := VectorIndexQuery(VectorIndex{Name: "bad`name", Dimension: 3, Similarity: "euclidean"})

	assert.Contains(t, q, "`badname`")
	assert.Contains(t, q, "'euclidean'")
}

func TestSimilarity_DefaultsToCosine(t *testing.T) {
	assert.Equal(t, "cosine", similarity("dotproduct"))
	assert.Equal(t, "cosine", similarity(""))
	assert.Equal(t, "euclidean", similarity("Euclidean"))
}
