package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
	"google.golang.org/genai"
)

const defaultProposeModel = "gemini-2.0-flash"

const systemPrompt = `You assist a developer-side context orchestration tool. Given a
description of the current workspace and a short history of recent sessions, propose
agents or skills that would help with the current session.

Respond with ONLY a JSON array, no markdown fence, of objects shaped as:
[{"name": "<component name>", "confidence": <0..1>, "reason": "<one short sentence>"}]

Propose at most 5 suggestions. Omit anything you are not reasonably confident about.`

// GenAICollaborator implements Collaborator over the genai SDK,
// grounded in internal/perception/transducer_llm.go's prompt/parse
// shape and internal/embedding/genai.go's client wiring.
type GenAICollaborator struct {
	client *genai.Client
	model  string
}

// NewGenAICollaborator adapts an existing genai client to Collaborator.
// Reusing the client lets the Vectorizer and the LLM collaborator share
// one underlying connection when both are GenAI-backed.
func NewGenAICollaborator(client *genai.Client, model string) *GenAICollaborator {
	if model == "" {
		model = defaultProposeModel
	}
	return &GenAICollaborator{client: client, model: model}
}

// Propose asks the model for activation suggestions and parses its
// JSON array response.
func (c *GenAICollaborator) Propose(ctx context.Context, contextText string, recentSummaries []string) ([]Suggestion, error) {
	timer := logging.StartTimer(logging.CategoryLearner, "GenAI.Propose")
	defer timer.Stop()

	userPrompt := buildProposePrompt(contextText, recentSummaries)
	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.Unavailable, err, "GenAI propose failed")
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, ctxerr.New(ctxerr.IO, "GenAI propose: empty response")
	}

	suggestions, err := parseSuggestions(text)
	if err != nil {
		return nil, fmt.Errorf("parsing GenAI propose response: %w", err)
	}
	return suggestions, nil
}

func buildProposePrompt(contextText string, recentSummaries []string) string {
	var sb strings.Builder
	sb.WriteString("## Current workspace context\n\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\n")
	if len(recentSummaries) > 0 {
		sb.WriteString("## Recent sessions\n\n")
		for _, s := range recentSummaries {
			sb.WriteString("- ")
			sb.WriteString(s)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func parseSuggestions(text string) ([]Suggestion, error) {
	jsonStr := extractJSONArray(text)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	var raw []struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		out = append(out, Suggestion{Name: r.Name, Confidence: r.Confidence, Reason: r.Reason})
	}
	return out, nil
}

// extractJSONArray finds a top-level JSON array in text, tolerating a
// markdown code fence wrapper, mirroring
// internal/perception/transducer_llm.go's extractJSON for objects.
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
