package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/services"
	"github.com/devmarked/feedbackiq/utils"
)

type submitResponseReq struct {
	Answers           map[string]any            `json:"answers" binding:"required"`
	ContactPreference *models.ContactPreference `json:"contact_preference"`
	CompletionTime    int                       `json:"completion_time"`
}

// POST /api/surveys/public/:id/responses — the sessionless submission path.
func SubmitResponse(c *gin.Context) {
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
	if !surveyAcceptingResponses(c, &survey) {
		return
	}

	var req submitResponseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	response, err := services.SubmitDirect(
		c.Request.Context(), store, &survey,
		req.Answers, req.ContactPreference,
		c.Request.UserAgent(), req.CompletionTime,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrContactPreferenceRequired):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Contact preference is required"})
		case errors.Is(err, services.ErrAnswerRequired):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to submit response"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"response_id": response.ID})
}

// surveyAcceptingResponses enforces the survey's settings: max responses and
// the start/expiry window. Writes the rejection itself and reports pass.
func surveyAcceptingResponses(c *gin.Context, survey *models.Survey) bool {
	doc, err := survey.Document()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to read survey data"})
		return false
	}
	settings, err := utils.ParseSurveySettings(doc.Settings)
	if err != nil {
		settings = &utils.SurveySettings{}
	}

	now := time.Now().Unix()
	if settings.StartAt != nil && now < *settings.StartAt {
		c.JSON(http.StatusForbidden, gin.H{"message": "Survey has not started yet"})
		return false
	}
	if settings.ExpireAt != nil && now >= *settings.ExpireAt {
		c.JSON(http.StatusForbidden, gin.H{"message": "Survey has expired"})
		return false
	}
	if settings.MaxResponses.Set && settings.MaxResponses.Value != nil &&
		survey.ResponseCount >= *settings.MaxResponses.Value {
		c.JSON(http.StatusForbidden, gin.H{"message": "Survey is no longer accepting responses"})
		return false
	}
	return true
}

// GET /api/surveys/:id/responses — owner view, newest first.
func ListResponses(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	responses, err := store.ListResponses(c.Request.Context(), survey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to list responses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"responses": responses,
		"total":     len(responses),
	})
}

// GET /api/surveys/:id/responses/:rid
func GetResponse(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var response models.SurveyResponse
	err := config.DB.First(&response, "id = ? AND survey_id = ?", c.Param("rid"), survey.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Response not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to load response"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}
