package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineEngine_IdenticalTextIsSimilarityOne(t *testing.T) {
	e := NewCosineEngine(64)
	v1, err := e.Embed(context.Background(), "has_backend has_api file_types: .go")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "has_backend has_api file_types: .go")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, CosineSimilarity(v1, v2), 1e-6)
}

func TestCosineEngine_DifferentTextIsLessSimilar(t *testing.T) {
	e := NewCosineEngine(64)
	v1, _ := e.Embed(context.Background(), "has_backend has_api")
	v2, _ := e.Embed(context.Background(), "has_frontend has_tests")

	assert.Less(t, CosineSimilarity(v1, v2), 1.0)
}

func TestCosineSimilarity_MismatchedLengthsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestCosineEngine_DefaultDimension(t *testing.T) {
	e := NewCosineEngine(0)
	assert.Equal(t, 256, e.Dim())
}
