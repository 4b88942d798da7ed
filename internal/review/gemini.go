package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"JobMatch-backend/internal/resume"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

const reviewPrompt = `You are an expert resume reviewer and career coach.
Review the attached resume constructively. Then suggest specific, actionable
optimizations that refer to sections or points of THIS resume. Avoid generic
advice. Focus on clarity, impact and alignment with common hiring practice.

Respond with a JSON object of the form:
{"review": "<the review>", "optimization": "<the suggestions>"}`

// contentGenerator is the part of *genai.GenerativeModel used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiReviewer asks a Gemini model to review the resume.
type GeminiReviewer struct {
	client *genai.Client
	model  contentGenerator
}

// NewGeminiReviewer creates a Gemini-backed reviewer.
func NewGeminiReviewer(ctx context.Context, apiKey, modelName string) (*GeminiReviewer, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for the gemini review provider")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	m := client.GenerativeModel(modelName)
	m.SetTemperature(0.2)
	m.ResponseMIMEType = "application/json"

	return &GeminiReviewer{client: client, model: m}, nil
}

// Review implements Reviewer.
func (g *GeminiReviewer) Review(ctx context.Context, f resume.File) (Result, error) {
	resp, err := g.model.GenerateContent(ctx,
		genai.Blob{MIMEType: f.ContentType, Data: f.Data},
		genai.Text(reviewPrompt),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate review: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return Result{}, err
	}

	var r Result
	if err := json.Unmarshal([]byte(cleanJSONBlock(text)), &r); err != nil {
		return Result{}, fmt.Errorf("malformed review response: %w", err)
	}
	return finish(r)
}

// Close releases the Gemini client.
func (g *GeminiReviewer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text parts in response")
	}
	return sb.String(), nil
}

func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
