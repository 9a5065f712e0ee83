package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/services"
)

// POST /api/surveys/:id/analyze
func AnalyzeSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)
	profile := c.MustGet(middleware.CtxProfile).(models.Profile)

	result, err := insightSvc.Analyze(c.Request.Context(), survey.ID, profile.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoResponses):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No survey data or responses found"})
		case errors.Is(err, services.ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "AI analysis is not configured"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze survey data"})
		}
		return
	}

	resp := gin.H{
		"success": true,
		"data":    result.Analysis,
		"saved":   result.Saved,
	}
	if result.Saved {
		resp["insight_id"] = result.InsightID
	}
	if result.SaveError != "" {
		resp["save_error"] = result.SaveError
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/surveys/:id/ai-insights[?history=true]
func GetInsights(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	if c.Query("history") == "true" {
		insights, err := insightSvc.History(c.Request.Context(), survey.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load insights"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"data":         insights,
			"has_insights": len(insights) > 0,
		})
		return
	}

	insight, err := insightSvc.Latest(c.Request.Context(), survey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load insight"})
		return
	}
	if insight == nil {
		// no insights yet is a normal state, not an error
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil, "has_insights": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": insight, "has_insights": true})
}

// GET /api/surveys/:id/ai-data — the formatted payload the analysis runs on.
func GetAIData(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	formatted, err := services.FetchAndFormatSurveyData(c.Request.Context(), store, survey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to format survey data"})
		return
	}
	c.JSON(http.StatusOK, formatted)
}
