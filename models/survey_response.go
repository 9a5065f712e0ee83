package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContactPreference is the respondent's choice recorded at submission time.
// Anonymous preferences carry no name or email.
type ContactPreference struct {
	Anonymous bool   `json:"anonymous"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ResponseMetadata is the shape of the metadata JSON column.
type ResponseMetadata struct {
	UserAgent         string             `json:"user_agent,omitempty"`
	Timestamp         string             `json:"timestamp,omitempty"`
	QuestionsAnswered int                `json:"questions_answered"`
	TotalQuestions    int                `json:"total_questions"`
	ContactPreference *ContactPreference `json:"contact_preference,omitempty"`
}

// SurveyResponse is one respondent's complete set of answers. Rows are
// created exactly once per respondent session and never updated.
type SurveyResponse struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	SurveyID       string         `gorm:"size:36;index;not null" json:"survey_id"`
	ResponseData   datatypes.JSON `gorm:"type:json" json:"response_data"`
	IsComplete     bool           `gorm:"not null;default:true" json:"is_complete"`
	CompletionTime int            `gorm:"not null;default:0" json:"completion_time"`
	SubmittedAt    time.Time      `gorm:"autoCreateTime;index" json:"submitted_at"`
	Metadata       datatypes.JSON `gorm:"type:json" json:"metadata"`

	Survey *Survey `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *SurveyResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Answers decodes the response_data map. A missing blob yields an empty map.
func (r *SurveyResponse) Answers() (map[string]any, error) {
	out := map[string]any{}
	if len(r.ResponseData) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(r.ResponseData, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Meta decodes the metadata blob. Missing metadata yields a zero value.
func (r *SurveyResponse) Meta() (ResponseMetadata, error) {
	var m ResponseMetadata
	if len(r.Metadata) == 0 {
		return m, nil
	}
	err := json.Unmarshal(r.Metadata, &m)
	return m, err
}
