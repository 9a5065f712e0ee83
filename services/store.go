package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/devmarked/feedbackiq/models"
)

// Store is the gorm-backed implementation of the narrow per-service
// interfaces (SurveyDataStore, InsightStore, CollectorStore, GateStore).
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	var survey models.Survey
	if err := s.db.WithContext(ctx).First(&survey, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

// ListResponses returns a survey's responses newest-submission-first.
func (s *Store) ListResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	err := s.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("submitted_at DESC, id DESC").
		Find(&responses).Error
	return responses, err
}

func (s *Store) InsertResponse(ctx context.Context, r *models.SurveyResponse) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// IncrementResponseCount bumps the denormalized counter atomically.
func (s *Store) IncrementResponseCount(ctx context.Context, surveyID string) error {
	return s.db.WithContext(ctx).Model(&models.Survey{}).
		Where("id = ?", surveyID).
		UpdateColumn("response_count", gorm.Expr("response_count + 1")).Error
}

func (s *Store) SaveInsight(ctx context.Context, insight *models.AIInsight) error {
	return s.db.WithContext(ctx).Create(insight).Error
}

// LatestInsight returns the most recently generated insight, or nil (not an
// error) when the survey has none. Ties on generated_at break by id so a
// query always returns the same row.
func (s *Store) LatestInsight(ctx context.Context, surveyID string) (*models.AIInsight, error) {
	var insight models.AIInsight
	err := s.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("generated_at DESC, id DESC").
		First(&insight).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

func (s *Store) ListInsights(ctx context.Context, surveyID string) ([]models.AIInsight, error) {
	var insights []models.AIInsight
	err := s.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("generated_at DESC, id DESC").
		Find(&insights).Error
	return insights, err
}

func (s *Store) AppendActivity(ctx context.Context, a *models.Activity) error {
	return s.db.WithContext(ctx).Create(a).Error
}

// GetProfileByUser returns nil (not an error) when the user has no profile row.
func (s *Store) GetProfileByUser(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Store) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	var business models.Business
	err := s.db.WithContext(ctx).First(&business, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &business, nil
}
