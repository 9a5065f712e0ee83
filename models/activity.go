package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity kinds recorded in the append-only log.
const (
	ActivitySurveyCreated    = "survey_created"
	ActivitySurveyStatus     = "survey_status_changed"
	ActivityResponseReceived = "response_received"
	ActivityInsightGenerated = "insight_generated"
)

// Activity is one append-only log entry scoped to a business. Entries are
// written at event time, never derived from other rows.
type Activity struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	BusinessID string    `gorm:"size:36;index;not null" json:"business_id"`
	SurveyID   *string   `gorm:"size:36;index" json:"survey_id,omitempty"`
	Kind       string    `gorm:"size:40;not null" json:"kind"`
	Message    string    `gorm:"size:512;not null" json:"message"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
