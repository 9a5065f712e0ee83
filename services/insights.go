package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/devmarked/feedbackiq/models"
)

var (
	// ErrNoResponses is returned before any LLM call when a survey has no
	// data to analyze.
	ErrNoResponses = errors.New("no survey data or responses found")
	// ErrNotConfigured means the OpenAI API key is missing.
	ErrNotConfigured = errors.New("openai api key not configured")
)

// InsightStore is what the analyze pipeline needs from persistence.
type InsightStore interface {
	SurveyDataStore
	SaveInsight(ctx context.Context, insight *models.AIInsight) error
	LatestInsight(ctx context.Context, surveyID string) (*models.AIInsight, error)
	ListInsights(ctx context.Context, surveyID string) ([]models.AIInsight, error)
}

// HTTPClient lets tests stub the completion endpoint.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// InsightService runs the format -> LLM -> validate -> persist pipeline.
type InsightService struct {
	store  InsightStore
	client HTTPClient

	apiKey   string
	endpoint string
	model    string
}

func NewInsightService(store InsightStore, client HTTPClient) *InsightService {
	if client == nil {
		client = http.DefaultClient
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &InsightService{
		store:    store,
		client:   client,
		apiKey:   os.Getenv("OPENAI_API_KEY"),
		endpoint: normalizeOpenAIEndpoint(os.Getenv("OPENAI_BASE_URL")),
		model:    model,
	}
}

// AnalyzeResult carries the analysis plus the persistence outcome. A failed
// save does not fail the pipeline; it is surfaced through Saved=false.
type AnalyzeResult struct {
	Analysis  models.SurveyAnalysis
	Saved     bool
	InsightID string
	SaveError string
}

// analysisSchema is the fixed JSON schema the model output must conform to.
var analysisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary":    map[string]any{"type": "string"},
		"strengths":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"weaknesses": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"themes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"theme":     map[string]any{"type": "string"},
					"frequency": map[string]any{"type": "integer"},
					"sentiment": map[string]any{"type": "string", "enum": []string{"positive", "neutral", "negative"}},
				},
				"required": []string{"theme", "frequency"},
			},
		},
		"recommendations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"area":       map[string]any{"type": "string"},
					"suggestion": map[string]any{"type": "string"},
					"impact":     map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
				},
				"required": []string{"area", "suggestion"},
			},
		},
	},
	"required": []string{"summary", "strengths", "weaknesses", "recommendations"},
}

const analystPrompt = "You are a survey analyst. Use survey metadata to understand the type (product, customer, employee, etc.) and adapt insights accordingly. Always return structured JSON following the schema."

// Analyze formats the survey's data, sends it to the completion endpoint and
// persists the structured result as a new insight row.
func (s *InsightService) Analyze(ctx context.Context, surveyID, createdBy string) (*AnalyzeResult, error) {
	formatted, err := FetchAndFormatSurveyData(ctx, s.store, surveyID)
	if err != nil {
		return nil, err
	}
	if len(formatted.Responses) == 0 {
		return nil, ErrNoResponses
	}
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	userPayload, err := json.Marshal(formatted)
	if err != nil {
		return nil, err
	}

	analysis, raw, err := s.complete(ctx, string(userPayload))
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{Analysis: analysis}
	insight := &models.AIInsight{
		SurveyID:     surveyID,
		AnalysisData: raw,
		CreatedBy:    createdBy,
	}
	if err := s.store.SaveInsight(ctx, insight); err != nil {
		log.Printf("failed to save AI insight for survey %s: %v", surveyID, err)
		result.SaveError = err.Error()
		return result, nil
	}
	result.Saved = true
	result.InsightID = insight.ID
	return result, nil
}

// complete performs the chat-completions call with a strict json_schema
// response format and validates the parsed output.
func (s *InsightService) complete(ctx context.Context, userPayload string) (models.SurveyAnalysis, []byte, error) {
	var zero models.SurveyAnalysis

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": analystPrompt},
			{"role": "user", "content": userPayload},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "survey_analysis",
				"schema": analysisSchema,
				"strict": true,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return zero, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return zero, nil, fmt.Errorf("llm request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return zero, nil, fmt.Errorf("llm request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return zero, nil, fmt.Errorf("llm response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return zero, nil, errors.New("llm response: no choices")
	}

	return decodeAnalysis([]byte(cc.Choices[0].Message.Content))
}

// decodeAnalysis parses the model output and independently checks the
// required fields rather than trusting the provider's schema guarantee.
func decodeAnalysis(raw []byte) (models.SurveyAnalysis, []byte, error) {
	var zero models.SurveyAnalysis

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, nil, fmt.Errorf("invalid JSON from model: %w", err)
	}
	for _, key := range []string{"summary", "strengths", "weaknesses", "recommendations"} {
		if _, ok := fields[key]; !ok {
			return zero, nil, fmt.Errorf("model output missing required field %q", key)
		}
	}

	var analysis models.SurveyAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return zero, nil, fmt.Errorf("model output does not match analysis schema: %w", err)
	}
	return analysis, raw, nil
}

// Latest returns the most recent insight or nil when none exists.
func (s *InsightService) Latest(ctx context.Context, surveyID string) (*models.AIInsight, error) {
	return s.store.LatestInsight(ctx, surveyID)
}

// History returns all insights newest-first.
func (s *InsightService) History(ctx context.Context, surveyID string) ([]models.AIInsight, error) {
	return s.store.ListInsights(ctx, surveyID)
}

func normalizeOpenAIEndpoint(base string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(base), "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	switch {
	case strings.HasSuffix(endpoint, "/chat/completions"):
		return endpoint
	case strings.HasSuffix(endpoint, "/v1"):
		return endpoint + "/chat/completions"
	default:
		return endpoint + "/v1/chat/completions"
	}
}
