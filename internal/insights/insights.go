// Package insights asks a Gemini model for a short review of the task list
// and a set of productivity recommendations.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/tgienger/lumina/internal/models"
)

const (
	FallbackReview          = "Unable to complete analysis at this time. Please check your connectivity."
	FallbackRecommendations = "Ensure you have an active workspace and try again shortly."

	DefaultModel = "gemini-2.5-flash"
)

// ErrNoAPIKey is returned when no key is configured for the model client
var ErrNoAPIKey = errors.New("insights: no API key configured")

// Insight is the result shown in the analytics view
type Insight struct {
	Review          string `json:"review"`
	Recommendations string `json:"recommendations"`
}

// Fallback is the fixed pair shown whenever analysis fails
func Fallback() Insight {
	return Insight{Review: FallbackReview, Recommendations: FallbackRecommendations}
}

// GenerateFunc sends prompt to a model and returns the raw response text
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Analyst produces insights. The zero value is not usable; use New.
type Analyst struct {
	apiKey   string
	model    string
	log      *zap.Logger
	generate GenerateFunc

	once   sync.Once
	client *genai.Client
	err    error
}

// New creates an analyst backed by the Gemini API. The client is created on
// first use so a missing key only surfaces when analysis is requested.
func New(apiKey, model string, logger *zap.Logger) *Analyst {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analyst{apiKey: apiKey, model: model, log: logger}
	a.generate = a.gemini
	return a
}

// NewWithGenerator creates an analyst that calls gen instead of Gemini
func NewWithGenerator(gen GenerateFunc, logger *zap.Logger) *Analyst {
	a := New("", "", logger)
	a.generate = gen
	return a
}

// Analyze returns the model's review, or the fallback pair on any failure.
// It never retries.
func (a *Analyst) Analyze(ctx context.Context, tasks []models.Task, workspaces []models.Workspace) Insight {
	prompt, err := BuildPrompt(tasks, workspaces)
	if err != nil {
		a.log.Error("failed to build insight prompt", zap.Error(err))
		return Fallback()
	}

	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.log.Error("AI analysis failed", zap.Error(err))
		return Fallback()
	}

	insight, err := Parse(text)
	if err != nil {
		a.log.Error("AI analysis returned unusable output", zap.Error(err))
		return Fallback()
	}
	return insight
}

type taskContext struct {
	Title     string `json:"title"`
	Status    string `json:"status"`
	Workspace string `json:"workspace"`
}

// BuildPrompt serializes every task as title, status and workspace name
func BuildPrompt(tasks []models.Task, workspaces []models.Workspace) (string, error) {
	names := make(map[string]string, len(workspaces))
	for _, ws := range workspaces {
		names[ws.ID] = ws.Name
	}

	rows := make([]taskContext, 0, len(tasks))
	for _, t := range tasks {
		ws, ok := names[t.WorkspaceID]
		if !ok {
			ws = "Unknown"
		}
		rows = append(rows, taskContext{Title: t.Title, Status: string(t.Status), Workspace: ws})
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Analyze this task data: %s.
Provide a concise "Review" of current progress and specific "Recommendations" for improving productivity.
Format your response as a JSON object with two keys: "review" and "recommendations".
Keep the tone professional and insightful.`, data), nil
}

// Parse decodes a model response. Both fields must be present.
func Parse(text string) (Insight, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var in Insight
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &in); err != nil {
		return Insight{}, fmt.Errorf("decode insight: %w", err)
	}
	if strings.TrimSpace(in.Review) == "" || strings.TrimSpace(in.Recommendations) == "" {
		return Insight{}, errors.New("insight is missing review or recommendations")
	}
	return in, nil
}

func (a *Analyst) gemini(ctx context.Context, prompt string) (string, error) {
	a.once.Do(func() {
		if a.apiKey == "" {
			a.err = ErrNoAPIKey
			return
		}
		a.client, a.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  a.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if a.err != nil {
			a.err = fmt.Errorf("failed to create GenAI client: %w", a.err)
		}
	})
	if a.err != nil {
		return "", a.err
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"review":          {Type: genai.TypeString},
		"recommendations": {Type: genai.TypeString},
	},
	Required: []string{"review", "recommendations"},
}
