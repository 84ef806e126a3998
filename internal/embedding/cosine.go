package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// CosineEngine is the zero-configuration default Vectorizer: a feature
// hashing embedding (Weinberger et al.) that needs no external service.
// It gives the Pattern Learner's semantic stream something to compare
// against even when no real embedding provider is configured, mirroring
// the teacher's "keyword-only" fallback mode
// (internal/store/vector_store.go) but as a genuine fixed-dimension
// vector rather than a boolean flag, so cosine similarity stays
// meaningful.
type CosineEngine struct {
	dim int
}

// NewCosineEngine returns a CosineEngine with the given dimensionality.
func NewCosineEngine(dim int) *CosineEngine {
	if dim <= 0 {
		dim = 256
	}
	return &CosineEngine{dim: dim}
}

func (e *CosineEngine) Dim() int { return e.dim }

// Embed hashes each whitespace-delimited token of text into a bucket of
// a fixed-size vector, accumulating signed counts (the hashing trick),
// then L2-normalizes the result.
func (e *CosineEngine) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		idx := int(h.Sum32()) % e.dim
		if idx < 0 {
			idx += e.dim
		}
		sign := float32(1)
		if (h.Sum32()>>31)&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(sumSq))
	for i := range vec {
		vec[i] *= norm
	}
}
