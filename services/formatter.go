package services

import (
	"context"
	"fmt"

	"github.com/devmarked/feedbackiq/models"
)

// SurveyMetadata is the survey half of the AI payload.
type SurveyMetadata struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	TargetAudience string            `json:"target_audience"`
	Purpose        string            `json:"purpose"`
	Questions      []models.Question `json:"questions"`
}

// FormattedSurveyData is the normalized payload sent to the LLM: survey
// metadata plus one answer map per response row.
type FormattedSurveyData struct {
	SurveyMetadata SurveyMetadata   `json:"survey_metadata"`
	Responses      []map[string]any `json:"responses"`
}

// SurveyDataStore loads the raw rows the formatter reshapes.
type SurveyDataStore interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error)
}

// FormatSurveyData is a pure reshape: no filtering, no aggregation. The
// output responses slice has exactly one entry per input row, each carrying
// only the question-id keys present in that row's answer map.
func FormatSurveyData(survey *models.Survey, responses []models.SurveyResponse) (*FormattedSurveyData, error) {
	doc, err := survey.Document()
	if err != nil {
		return nil, err
	}
	questions := doc.Questions
	if questions == nil {
		questions = []models.Question{}
	}

	out := &FormattedSurveyData{
		SurveyMetadata: SurveyMetadata{
			Title:          survey.Title,
			Description:    survey.Description,
			TargetAudience: survey.TargetAudience,
			Purpose:        survey.Purpose,
			Questions:      questions,
		},
		Responses: make([]map[string]any, 0, len(responses)),
	}

	for i := range responses {
		answers, err := responses[i].Answers()
		if err != nil {
			return nil, fmt.Errorf("response %s: %w", responses[i].ID, err)
		}
		out.Responses = append(out.Responses, answers)
	}

	return out, nil
}

// FetchAndFormatSurveyData loads the survey row and its responses
// (newest-submission-first) and applies the format step. Query failures come
// back as errors, never panics.
func FetchAndFormatSurveyData(ctx context.Context, store SurveyDataStore, surveyID string) (*FormattedSurveyData, error) {
	survey, err := store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("fetch survey: %w", err)
	}
	responses, err := store.ListResponses(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("fetch responses: %w", err)
	}
	return FormatSurveyData(survey, responses)
}
