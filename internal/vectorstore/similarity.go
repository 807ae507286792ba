package vectorstore

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// CosineSimilarity returns the cosine similarity of a and b. Zero-magnitude
// vectors have similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectorstore: cosine similarity dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// RankMatches sorts matches by descending score, ties broken by id, and keeps at most topK.
func RankMatches(matches []Match, topK int) []Match {
	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
