package embedding

import (
	"context"
	"fmt"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
	"google.golang.org/genai"
)

// genaiEmbedDimensions is fixed per model the way the teacher's
// GenAIEngine fixes OutputDimensionality for its chosen model.
const genaiEmbedDimensions = 768

// GenAIVectorizer adapts google.golang.org/genai's embedding endpoint
// to the Vectorizer contract, grounded on
// internal/embedding/genai.go's GenAIEngine.
type GenAIVectorizer struct {
	client *genai.Client
	model  string
}

// NewGenAIVectorizer creates a GenAI-backed Vectorizer.
func NewGenAIVectorizer(ctx context.Context, apiKey, model string) (*GenAIVectorizer, error) {
	if apiKey == "" {
		return nil, ctxerr.New(ctxerr.Unavailable, "GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.Unavailable, err, "creating GenAI client")
	}
	return &GenAIVectorizer{client: client, model: model}, nil
}

func (v *GenAIVectorizer) Dim() int { return genaiEmbedDimensions }

// Embed embeds a single text via the GenAI EmbedContent API.
func (v *GenAIVectorizer) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "GenAI.Embed")
	defer timer.Stop()

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	dims := int32(genaiEmbedDimensions)
	result, err := v.client.Models.EmbedContent(ctx, v.model, contents,
		&genai.EmbedContentConfig{OutputDimensionality: &dims})
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "GenAI embed failed")
	}
	if len(result.Embeddings) == 0 {
		return nil, ctxerr.New(ctxerr.IO, "no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// maxGenAIBatchSize mirrors the teacher's documented GenAI API limit:
// the API returns a 400 for more than 100 contents in one request.
const maxGenAIBatchSize = 100

// EmbedBatch embeds texts via GenAI's native multi-content
// EmbedContent call, chunked to maxGenAIBatchSize, satisfying
// BatchVectorizer. Each chunk is one API call, not one call per text.
func (v *GenAIVectorizer) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxGenAIBatchSize {
		end := start + maxGenAIBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := v.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// embedChunk issues one EmbedContent call carrying up to
// maxGenAIBatchSize texts as separate contents in a single request.
func (v *GenAIVectorizer) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "GenAI.EmbedBatch")
	defer timer.Stop()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dims := int32(genaiEmbedDimensions)
	result, err := v.client.Models.EmbedContent(ctx, v.model, contents,
		&genai.EmbedContentConfig{OutputDimensionality: &dims})
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "GenAI batch embed failed")
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}
