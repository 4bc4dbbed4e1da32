package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// Gemini talks to Vertex AI. One client is built at process start and shared
// across requests.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context) (*Gemini, error) {
	projectID := os.Getenv("GOOGLE_PROJECT_ID")
	if projectID == "" {
		return nil, errors.New("GOOGLE_PROJECT_ID is not set")
	}

	location := os.Getenv("GOOGLE_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	modelName := os.Getenv("GEMINI_MODEL")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	opts := []option.ClientOption{}
	if creds := os.Getenv("GOOGLE_CREDENTIALS_FILE"); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *Gemini) AnalyzeIngredients(ctx context.Context, req Request) (*Assessment, error) {
	return g.generate(ctx, genai.Text(BuildPrompt(req)))
}

func (g *Gemini) AnalyzeImage(ctx context.Context, mimeType string, image []byte, req Request) (*Assessment, error) {
	// genai.ImageData wants the bare format ("jpeg"), not the full mime type.
	format := strings.TrimPrefix(mimeType, "image/")
	return g.generate(ctx, genai.Text(BuildImagePrompt(req)), genai.ImageData(format, image))
}

func (g *Gemini) generate(ctx context.Context, parts ...genai.Part) (*Assessment, error) {
	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to call ai: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no content in response")
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return ParseAssessment(text), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
