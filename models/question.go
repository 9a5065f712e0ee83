package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Question types supported by the builder and the collector.
const (
	QuestionText           = "text"
	QuestionTextarea       = "textarea"
	QuestionMultipleChoice = "multiple_choice"
	QuestionCheckbox       = "checkbox"
	QuestionRating         = "rating"
	QuestionDate           = "date"
)

var questionTypes = map[string]bool{
	QuestionText:           true,
	QuestionTextarea:       true,
	QuestionMultipleChoice: true,
	QuestionCheckbox:       true,
	QuestionRating:         true,
	QuestionDate:           true,
}

// Question is one entry of the ordered question list embedded in a survey's
// survey_data blob. IDs are client-generated tokens, not database keys.
type Question struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	Scale       int      `json:"scale,omitempty"`
}

// HasOptions reports whether the question type carries an options list.
func (q *Question) HasOptions() bool {
	return q.Type == QuestionMultipleChoice || q.Type == QuestionCheckbox
}

// Validate enforces the per-type invariants: choice questions always carry a
// non-empty options list, rating questions a scale of exactly 5 or 10.
func (q *Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}
	if q.Title == "" {
		return fmt.Errorf("question %s: title is required", q.ID)
	}
	if !questionTypes[q.Type] {
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	if q.HasOptions() && len(q.Options) == 0 {
		return fmt.Errorf("question %s: %s questions need at least one option", q.ID, q.Type)
	}
	if q.Type == QuestionRating && q.Scale != 5 && q.Scale != 10 {
		return fmt.Errorf("question %s: rating scale must be 5 or 10", q.ID)
	}
	return nil
}

// SurveyDocument is the shape of the survey_data JSON column: the ordered
// question list plus free-form settings.
type SurveyDocument struct {
	Questions []Question      `json:"questions"`
	Settings  json.RawMessage `json:"settings,omitempty"`
}

// Validate checks every question and rejects duplicate question ids.
func (d *SurveyDocument) Validate() error {
	seen := make(map[string]bool, len(d.Questions))
	for i := range d.Questions {
		q := &d.Questions[i]
		if err := q.Validate(); err != nil {
			return err
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true
	}
	if len(d.Settings) > 0 && !json.Valid(d.Settings) {
		return fmt.Errorf("settings is not valid JSON")
	}
	return nil
}

// Question returns the question with the given id, or nil.
func (d *SurveyDocument) Question(id string) *Question {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return &d.Questions[i]
		}
	}
	return nil
}

func ParseSurveyDocument(raw datatypes.JSON) (*SurveyDocument, error) {
	doc := &SurveyDocument{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("invalid survey_data: %w", err)
	}
	return doc, nil
}

func (d *SurveyDocument) Marshal() (datatypes.JSON, error) {
	if d.Questions == nil {
		d.Questions = []Question{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
