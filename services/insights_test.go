package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/devmarked/feedbackiq/models"
)

type stubInsightStore struct {
	stubSurveyStore
	saved   []*models.AIInsight
	saveErr error
	latest  *models.AIInsight
	history []models.AIInsight
}

func (s *stubInsightStore) SaveInsight(ctx context.Context, insight *models.AIInsight) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	insight.ID = "ins-1"
	s.saved = append(s.saved, insight)
	return nil
}

func (s *stubInsightStore) LatestInsight(ctx context.Context, surveyID string) (*models.AIInsight, error) {
	return s.latest, nil
}

func (s *stubInsightStore) ListInsights(ctx context.Context, surveyID string) ([]models.AIInsight, error) {
	return s.history, nil
}

type stubHTTPClient struct {
	resp *http.Response
	err  error
	req  *http.Request
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.req = req
	return c.resp, c.err
}

func chatResponse(content string) *http.Response {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(body))}
}

const validAnalysis = `{"summary":"Mostly positive","strengths":["speed"],"weaknesses":["price"],"recommendations":[{"area":"pricing","suggestion":"add a tier","impact":"high"}]}`

func newTestInsightService(store InsightStore, client HTTPClient) *InsightService {
	return &InsightService{
		store:    store,
		client:   client,
		apiKey:   "test-key",
		endpoint: "https://api.openai.com/v1/chat/completions",
		model:    "gpt-4o-mini",
	}
}

func TestAnalyzeNoResponsesSkipsLLM(t *testing.T) {
	store := &stubInsightStore{}
	store.survey = testSurvey(t, []models.Question{
		{ID: "q1", Type: models.QuestionText, Title: "A", Required: true},
		{ID: "q2", Type: models.QuestionText, Title: "B", Required: true},
	})
	client := &stubHTTPClient{resp: chatResponse(validAnalysis)}
	svc := newTestInsightService(store, client)

	_, err := svc.Analyze(context.Background(), "svy-1", "user-1")
	if !errors.Is(err, ErrNoResponses) {
		t.Fatalf("want ErrNoResponses, got %v", err)
	}
	if client.req != nil {
		t.Fatal("LLM must not be called when there are no responses")
	}
}

func TestAnalyzeSuccessPersists(t *testing.T) {
	store := &stubInsightStore{}
	store.survey = testSurvey(t, []models.Question{{ID: "q1", Type: models.QuestionText, Title: "A"}})
	store.responses = []models.SurveyResponse{testResponse(t, "r1", map[string]any{"q1": "great"})}
	client := &stubHTTPClient{resp: chatResponse(validAnalysis)}
	svc := newTestInsightService(store, client)

	res, err := svc.Analyze(context.Background(), "svy-1", "user-1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !res.Saved || res.InsightID != "ins-1" {
		t.Fatalf("expected persisted insight, got %+v", res)
	}
	if res.Analysis.Summary != "Mostly positive" || len(res.Analysis.Recommendations) != 1 {
		t.Fatalf("analysis not decoded: %+v", res.Analysis)
	}
	if client.req.Header.Get("Authorization") != "Bearer test-key" {
		t.Fatal("missing Authorization header")
	}
	if len(store.saved) != 1 || store.saved[0].SurveyID != "svy-1" || store.saved[0].CreatedBy != "user-1" {
		t.Fatalf("insight row wrong: %+v", store.saved)
	}
}

func TestAnalyzeSaveFailureIsNonFatal(t *testing.T) {
	store := &stubInsightStore{saveErr: errors.New("db down")}
	store.survey = testSurvey(t, []models.Question{{ID: "q1", Type: models.QuestionText, Title: "A"}})
	store.responses = []models.SurveyResponse{testResponse(t, "r1", map[string]any{"q1": "ok"})}
	svc := newTestInsightService(store, &stubHTTPClient{resp: chatResponse(validAnalysis)})

	res, err := svc.Analyze(context.Background(), "svy-1", "user-1")
	if err != nil {
		t.Fatalf("analysis must still be returned, got %v", err)
	}
	if res.Saved || res.SaveError == "" {
		t.Fatalf("expected saved=false with error, got %+v", res)
	}
}

func TestAnalyzeRejectsNonJSONOutput(t *testing.T) {
	store := &stubInsightStore{}
	store.survey = testSurvey(t, []models.Question{{ID: "q1", Type: models.QuestionText, Title: "A"}})
	store.responses = []models.SurveyResponse{testResponse(t, "r1", map[string]any{"q1": "ok"})}
	svc := newTestInsightService(store, &stubHTTPClient{resp: chatResponse("not json at all")})

	if _, err := svc.Analyze(context.Background(), "svy-1", "user-1"); err == nil {
		t.Fatal("expected parse failure to surface as pipeline error")
	}
}

func TestAnalyzeRejectsMissingRequiredFields(t *testing.T) {
	store := &stubInsightStore{}
	store.survey = testSurvey(t, []models.Question{{ID: "q1", Type: models.QuestionText, Title: "A"}})
	store.responses = []models.SurveyResponse{testResponse(t, "r1", map[string]any{"q1": "ok"})}
	svc := newTestInsightService(store, &stubHTTPClient{resp: chatResponse(`{"summary":"x"}`)})

	if _, err := svc.Analyze(context.Background(), "svy-1", "user-1"); err == nil {
		t.Fatal("expected schema validation failure")
	}
	if len(store.saved) != 0 {
		t.Fatal("invalid output must not be persisted")
	}
}

func TestAnalyzeMissingAPIKey(t *testing.T) {
	store := &stubInsightStore{}
	store.survey = testSurvey(t, []models.Question{{ID: "q1", Type: models.QuestionText, Title: "A"}})
	store.responses = []models.SurveyResponse{testResponse(t, "r1", map[string]any{"q1": "ok"})}
	svc := newTestInsightService(store, &stubHTTPClient{resp: chatResponse(validAnalysis)})
	svc.apiKey = ""

	if _, err := svc.Analyze(context.Background(), "svy-1", "user-1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestLatestNilWhenNoInsights(t *testing.T) {
	svc := newTestInsightService(&stubInsightStore{}, nil)
	insight, err := svc.Latest(context.Background(), "svy-1")
	if err != nil {
		t.Fatalf("zero insights must not be an error: %v", err)
	}
	if insight != nil {
		t.Fatalf("want nil insight, got %+v", insight)
	}
}

func TestNormalizeOpenAIEndpoint(t *testing.T) {
	cases := map[string]string{
		"": "https://api.openai.com/v1/chat/completions",
		"https://proxy.local/v1":                  "https://proxy.local/v1/chat/completions",
		"https://proxy.local/v1/chat/completions": "https://proxy.local/v1/chat/completions",
		"https://proxy.local":                     "https://proxy.local/v1/chat/completions",
	}
	for in, want := range cases {
		if got := normalizeOpenAIEndpoint(in); got != want {
			t.Fatalf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
