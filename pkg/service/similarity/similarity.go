package similarity

import (
	"math"
	"sort"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
)

// Candidate is one searchable record: its stored vector plus the full
// record returned on a hit.
type Candidate struct {
	Vector []float32
	Case   *model.TestCase
}

// Hit is a search result with its cosine similarity score
type Hit struct {
	Similarity float64
	Case       *model.TestCase
}

// Search ranks candidates by cosine similarity against the query vector.
// Candidates whose vector length differs from the query, or whose vector
// has zero magnitude, are skipped rather than failing the search. Results
// are filtered to scores >= minSimilarity, sorted descending, and
// truncated to limit. The sort is stable, so equal scores keep the
// candidate input order.
func Search(query []float32, candidates []Candidate, minSimilarity float64, limit int) []Hit {
	if len(query) == 0 || limit <= 0 {
		return nil
	}

	var hits []Hit
	for _, c := range candidates {
		score, ok := Cosine(query, c.Vector)
		if !ok {
			continue
		}
		if score >= minSimilarity {
			hits = append(hits, Hit{Similarity: score, Case: c.Case})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits
}

// Cosine computes the cosine similarity of two vectors. The second
// return value is false when the vectors have different lengths or
// either has zero magnitude.
func Cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
