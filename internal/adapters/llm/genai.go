// Package llm provides a skill oracle backed by Google's Gemini API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/SFZPL/tms-sub000/internal/domain/scoring"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

const defaultTemperature = 0.3

// ErrMissingAPIKey is returned when the client is built without a key.
var ErrMissingAPIKey = errors.New("GenAI API key is required")

// generator is the slice of the genai client the oracle calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIOracle implements scoring.Oracle with a Gemini model asked to answer
// in JSON.
type GenAIOracle struct {
	models      generator
	model       string
	temperature float32
}

var _ scoring.Oracle = (*GenAIOracle)(nil)

// NewGenAIOracle creates a new GenAI oracle.
func NewGenAIOracle(ctx context.Context, apiKey, model string) (*GenAIOracle, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newOracle(client.Models, model), nil
}

func newOracle(models generator, model string) *GenAIOracle {
	if model == "" {
		model = DefaultModel
	}
	return &GenAIOracle{models: models, model: model, temperature: defaultTemperature}
}

// Model returns the configured model name.
func (o *GenAIOracle) Model() string { return o.model }

// Rank implements scoring.Oracle.
func (o *GenAIOracle) Rank(ctx context.Context, prompt scoring.Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](o.temperature),
		ResponseMIMEType: "application/json",
	}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	resp, err := o.models.GenerateContent(ctx, o.model, genai.Text(prompt.User), cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("GenAI returned no response")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("GenAI returned no text")
	}
	return text, nil
}
