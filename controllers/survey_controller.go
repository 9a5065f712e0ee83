package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/utils"
)

type createSurveyReq struct {
	Title          string            `json:"title" binding:"required,min=1"`
	Description    string            `json:"description"`
	TargetAudience string            `json:"target_audience"`
	Purpose        string            `json:"purpose"`
	Questions      []models.Question `json:"questions"`
	Settings       json.RawMessage   `json:"settings"`
}

// POST /api/surveys
func CreateSurvey(c *gin.Context) {
	profile := c.MustGet(middleware.CtxProfile).(models.Profile)
	if profile.BusinessID == nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "No business linked"})
		return
	}

	var req createSurveyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	doc := &models.SurveyDocument{Questions: req.Questions, Settings: req.Settings}
	if len(req.Settings) > 0 {
		if _, err := utils.ParseSurveySettings(req.Settings); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
	}
	if err := doc.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	raw, err := doc.Marshal()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to encode survey data"})
		return
	}

	survey := models.Survey{
		BusinessID:     *profile.BusinessID,
		Title:          req.Title,
		Description:    req.Description,
		TargetAudience: req.TargetAudience,
		Purpose:        req.Purpose,
		SurveyData:     raw,
		Status:         models.SurveyStatusDraft,
		CreatedBy:      profile.UserID,
	}
	if err := config.DB.Create(&survey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to create survey"})
		return
	}

	logActivity(survey.BusinessID, survey.ID, models.ActivitySurveyCreated,
		fmt.Sprintf("Survey %q created", survey.Title))

	c.JSON(http.StatusCreated, gin.H{"survey": survey})
}

// GET /api/surveys — the caller's business surveys, newest first.
func ListMySurveys(c *gin.Context) {
	profile := c.MustGet(middleware.CtxProfile).(models.Profile)
	if profile.BusinessID == nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "No business linked"})
		return
	}

	var surveys []models.Survey
	if err := config.DB.
		Where("business_id = ?", *profile.BusinessID).
		Order("created_at DESC").
		Find(&surveys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to list surveys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}

// GET /api/surveys/:id (owner)
func GetSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)
	c.JSON(http.StatusOK, gin.H{"survey": survey})
}

// GET /api/surveys/public/:id — the respondent-facing read. Missing and
// non-active surveys are indistinguishable: both 404.
func GetPublicSurvey(c *gin.Context) {
	id := c.Param("id")

	var survey models.Survey
	err := config.DB.First(&survey, "id = ? AND status = ?", id, models.SurveyStatusActive).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Survey not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to load survey"})
		return
	}

	doc, err := survey.Document()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to read survey data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"survey": gin.H{
			"id":          survey.ID,
			"title":       survey.Title,
			"description": survey.Description,
			"questions":   doc.Questions,
			"settings":    json.RawMessage(doc.Settings),
		},
	})
}

type updateSurveyReq struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	TargetAudience *string          `json:"target_audience"`
	Purpose        *string          `json:"purpose"`
	Settings       *json.RawMessage `json:"settings"`
}

// PUT /api/surveys/:id
func UpdateSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var req updateSurveyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.TargetAudience != nil {
		updates["target_audience"] = *req.TargetAudience
	}
	if req.Purpose != nil {
		updates["purpose"] = *req.Purpose
	}

	if req.Settings != nil {
		doc, err := survey.Document()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to read survey data"})
			return
		}
		base, err := utils.ParseSurveySettings(doc.Settings)
		if err != nil {
			base = &utils.SurveySettings{}
		}
		patch, err := utils.ParseSurveySettings(*req.Settings)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		merged, err := json.Marshal(utils.MergeSurveySettings(base, patch))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to encode settings"})
			return
		}
		doc.Settings = merged
		raw, err := doc.Marshal()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to encode survey data"})
			return
		}
		updates["survey_data"] = raw
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	if err := config.DB.Model(&models.Survey{}).
		Where("id = ?", survey.ID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// DELETE /api/surveys/:id
func DeleteSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	if err := config.DB.Delete(&models.Survey{}, "id = ?", survey.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type statusReq struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /api/surveys/:id/status
func UpdateSurveyStatus(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	if !models.CanTransitionSurvey(survey.Status, req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"message": fmt.Sprintf("Cannot transition from %s to %s", survey.Status, req.Status),
		})
		return
	}

	if err := config.DB.Model(&models.Survey{}).
		Where("id = ?", survey.ID).
		Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return
	}

	logActivity(survey.BusinessID, survey.ID, models.ActivitySurveyStatus,
		fmt.Sprintf("Survey %q moved to %s", survey.Title, req.Status))

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// POST /api/surveys/:id/clone — copies the document into a fresh draft.
func CloneSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)
	profile := c.MustGet(middleware.CtxProfile).(models.Profile)

	clone := models.Survey{
		BusinessID:     survey.BusinessID,
		Title:          survey.Title + " (copy)",
		Description:    survey.Description,
		TargetAudience: survey.TargetAudience,
		Purpose:        survey.Purpose,
		SurveyData:     survey.SurveyData,
		Status:         models.SurveyStatusDraft,
		CreatedBy:      profile.UserID,
	}
	if err := config.DB.Create(&clone).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to clone survey"})
		return
	}

	logActivity(clone.BusinessID, clone.ID, models.ActivitySurveyCreated,
		fmt.Sprintf("Survey %q created", clone.Title))

	c.JSON(http.StatusCreated, gin.H{"survey": clone})
}

// GET /api/activity
func ListActivity(c *gin.Context) {
	profile := c.MustGet(middleware.CtxProfile).(models.Profile)
	if profile.BusinessID == nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "No business linked"})
		return
	}

	var entries []models.Activity
	if err := config.DB.
		Where("business_id = ?", *profile.BusinessID).
		Order("created_at DESC, id DESC").
		Limit(50).
		Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to list activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries})
}

// GET /api/admin/surveys — cross-tenant listing for admin profiles.
func AdminListSurveys(c *gin.Context) {
	var surveys []models.Survey
	if err := config.DB.
		Order("created_at DESC").
		Find(&surveys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to list surveys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys, "total": len(surveys)})
}

// logActivity appends to the activity log; failures are logged, never
// surfaced to the caller.
func logActivity(businessID, surveyID, kind, message string) {
	entry := models.Activity{
		BusinessID: businessID,
		SurveyID:   &surveyID,
		Kind:       kind,
		Message:    message,
	}
	if err := config.DB.Create(&entry).Error; err != nil {
		log.Printf("failed to append activity for business %s: %v", businessID, err)
	}
}
