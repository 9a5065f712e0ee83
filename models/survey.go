package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Survey lifecycle. Only active surveys accept public responses.
const (
	SurveyStatusDraft     = "draft"
	SurveyStatusActive    = "active"
	SurveyStatusPaused    = "paused"
	SurveyStatusCompleted = "completed"
)

// surveyTransitions lists the allowed status moves.
var surveyTransitions = map[string][]string{
	SurveyStatusDraft:  {SurveyStatusActive},
	SurveyStatusActive: {SurveyStatusPaused, SurveyStatusCompleted},
	SurveyStatusPaused: {SurveyStatusActive, SurveyStatusCompleted},
}

// CanTransitionSurvey reports whether a survey may move from one status to another.
func CanTransitionSurvey(from, to string) bool {
	for _, s := range surveyTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Survey struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	BusinessID     string         `gorm:"size:36;index;not null" json:"business_id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	TargetAudience string         `gorm:"size:255" json:"target_audience"`
	Purpose        string         `gorm:"size:255" json:"purpose"`
	SurveyData     datatypes.JSON `gorm:"type:json" json:"survey_data"`
	Status         string         `gorm:"size:20;not null;default:'draft';index" json:"status"`
	ResponseCount  int            `gorm:"not null;default:0" json:"response_count"`
	CreatedBy      string         `gorm:"size:36;index" json:"created_by"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Business  *Business        `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"-"`
	Responses []SurveyResponse `gorm:"foreignKey:SurveyID" json:"-"`
	Insights  []AIInsight      `gorm:"foreignKey:SurveyID" json:"-"`
}

func (s *Survey) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Document parses the survey_data blob. An empty blob yields an empty document.
func (s *Survey) Document() (*SurveyDocument, error) {
	return ParseSurveyDocument(s.SurveyData)
}
