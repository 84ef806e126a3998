// Package embedding provides the Vectorizer collaborator contract
// (spec §6) and two implementations: a dependency-free cosine engine
// used as the zero-configuration default, and an adapter over
// google.golang.org/genai's embedding endpoint, grounded in the
// teacher's internal/embedding/genai.go.
package embedding

import (
	"context"
	"math"
)

// Vectorizer produces fixed-dimension numeric embeddings of text (spec
// §6). Absence of a configured Vectorizer is a first-class state: the
// Pattern Learner's semantic stream is simply skipped.
type Vectorizer interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// BatchVectorizer is an optional extension (spec §6 "Batched embedding
// is a recommended extension but not required").
type BatchVectorizer interface {
	Vectorizer
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors. Returns 0 for zero vectors or mismatched lengths.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
