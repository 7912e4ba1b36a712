// Package rank orders heterogeneous retrieval candidates by cosine
// similarity against a query embedding.
package rank

import (
	"math"
	"sort"
)

// SourceKind tags where a candidate came from.
type SourceKind string

const (
	// KindStored marks candidates read from the vector store.
	KindStored SourceKind = "stored"

	// KindHarvested marks candidates pulled from live web pages.
	KindHarvested SourceKind = "harvested"
)

// Candidate is a single scoreable retrieval result. Candidates from every
// source are converted into this shape at the source boundary, so ranking
// never inspects concrete source types.
type Candidate struct {
	Kind      SourceKind
	Title     string
	Content   string
	Embedding []float32
}

// Ranked pairs a candidate with its similarity score.
type Ranked struct {
	Candidate

	// Score is the cosine similarity against the query embedding,
	// in [-1, 1]. NaN when either vector has zero norm.
	Score float64
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). Mismatched lengths or a
// zero-norm vector yield NaN; callers sort such candidates last rather
// than failing.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return math.NaN()
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores candidates against query, sorts descending by similarity,
// and truncates to at most n. The sort is stable: ties and NaN scores keep
// the discovery order of the input, so identical inputs always produce
// identical output. NaN scores sort after every real score.
func Rank(query []float32, candidates []Candidate, n int) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, Ranked{
			Candidate: c,
			Score:     CosineSimilarity(query, c.Embedding),
		})
	}

	return Order(ranked, n)
}

// Order sorts pre-scored candidates descending by score and truncates to
// at most n, with the same stability and NaN handling as Rank. It lets
// callers merge candidates whose scores come from different scorers (a
// vector store's own similarity, a local cosine pass) into one ranking.
func Order(ranked []Ranked, n int) []Ranked {
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].Score, ranked[j].Score
		if math.IsNaN(si) {
			return false
		}
		if math.IsNaN(sj) {
			return true
		}
		return si > sj
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}
