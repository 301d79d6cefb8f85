package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-flash"

// GenerateOptions tunes a single completion request.
type GenerateOptions struct {
	Temperature      float32
	ResponseMIMEType string
	ResponseSchema   *genai.Schema
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client. baseURL overrides the API endpoint when set.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(opts.Temperature),
		ResponseMIMEType: opts.ResponseMIMEType,
		ResponseSchema:   opts.ResponseSchema,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("assistant: generate: %w", err)
	}
	return resp.Text(), nil
}

// suggestionSchema constrains structured review output to an array of suggestions.
func suggestionSchema() *genai.Schema {
	categories := make([]string, 0, len(suggestionCategories))
	for _, c := range suggestionCategories {
		categories = append(categories, string(c))
	}
	severities := make([]string, 0, len(suggestionSeverities))
	for _, s := range suggestionSeverities {
		severities = append(severities, string(s))
	}

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category":    {Type: genai.TypeString, Enum: categories},
				"severity":    {Type: genai.TypeString, Enum: severities},
				"description": {Type: genai.TypeString},
				"suggestion":  {Type: genai.TypeString},
			},
			Required:         []string{"category", "severity", "description", "suggestion"},
			PropertyOrdering: []string{"category", "severity", "description", "suggestion"},
		},
	}
}
