package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SurveyAnalysis is the structured result of an LLM analysis run.
type SurveyAnalysis struct {
	Summary         string           `json:"summary"`
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	Themes          []AnalysisTheme  `json:"themes,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

type AnalysisTheme struct {
	Theme     string `json:"theme"`
	Frequency int    `json:"frequency"`
	Sentiment string `json:"sentiment,omitempty"` // positive | neutral | negative
}

type Recommendation struct {
	Area       string `json:"area"`
	Suggestion string `json:"suggestion"`
	Impact     string `json:"impact,omitempty"` // high | medium | low
}

// AIInsight is one persisted analysis run. Insights accumulate per survey;
// the latest by generation timestamp is the default read.
type AIInsight struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	SurveyID     string         `gorm:"size:36;index;not null" json:"survey_id"`
	AnalysisData datatypes.JSON `gorm:"type:json" json:"analysis_data"`
	GeneratedAt  time.Time      `gorm:"autoCreateTime;index" json:"generated_at"`
	CreatedBy    string         `gorm:"size:36" json:"created_by"`

	Survey *Survey `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (i *AIInsight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// Analysis decodes the analysis_data blob.
func (i *AIInsight) Analysis() (SurveyAnalysis, error) {
	var a SurveyAnalysis
	if len(i.AnalysisData) == 0 {
		return a, nil
	}
	err := json.Unmarshal(i.AnalysisData, &a)
	return a, err
}
