package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/services"
)

// sessionState renders the collector state the respondent client drives on.
func sessionState(token string, col *services.Collector) gin.H {
	return gin.H{
		"session_id":        token,
		"question_index":    col.Index(),
		"total_questions":   col.TotalQuestions(),
		"current_question":  col.Current(),
		"can_proceed":       col.CanProceed(),
		"contact_gate_open": col.ContactGateOpen(),
		"completed":         col.Completed(),
	}
}

// POST /api/surveys/public/:id/sessions
func CreateSession(c *gin.Context) {
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

	token, col, err := sessionsSvc.Create(&survey)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sessionState(token, col))
}

func sessionCollector(c *gin.Context) (string, *services.Collector, bool) {
	token := c.Param("sid")
	col, ok := sessionsSvc.Get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Session not found or expired"})
		return "", nil, false
	}
	return token, col, true
}

// GET /api/sessions/:sid
func GetSession(c *gin.Context) {
	token, col, ok := sessionCollector(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionState(token, col))
}

// PUT /api/sessions/:sid/contact
func SetSessionContact(c *gin.Context) {
	token, col, ok := sessionCollector(c)
	if !ok {
		return
	}

	var pref models.ContactPreference
	if err := c.ShouldBindJSON(&pref); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if !pref.Anonymous && pref.Name == "" && pref.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Provide a name or email, or choose anonymous"})
		return
	}

	col.SetContactPreference(pref)
	c.JSON(http.StatusOK, sessionState(token, col))
}

type answerReq struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     any    `json:"answer"`
}

// PUT /api/sessions/:sid/answer
func RecordSessionAnswer(c *gin.Context) {
	token, col, ok := sessionCollector(c)
	if !ok {
		return
	}

	var req answerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	if err := col.RecordAnswer(req.QuestionID, req.Answer); err != nil {
		if errors.Is(err, services.ErrAlreadySubmitted) {
			c.JSON(http.StatusConflict, gin.H{"message": "Response already submitted"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionState(token, col))
}

// POST /api/sessions/:sid/next
func AdvanceSession(c *gin.Context) {
	token, col, ok := sessionCollector(c)
	if !ok {
		return
	}
	moved := col.Next()
	state := sessionState(token, col)
	state["moved"] = moved
	c.JSON(http.StatusOK, state)
}

// POST /api/sessions/:sid/back
func SessionBack(c *gin.Context) {
	token, col, ok := sessionCollector(c)
	if !ok {
		return
	}
	moved := col.Back()
	state := sessionState(token, col)
	state["moved"] = moved
	c.JSON(http.StatusOK, state)
}

// POST /api/sessions/:sid/key — maps a keyboard event to the navigation
// action and applies it. Submit actions run the full submission path.
func SessionKey(c *gin.Context) {
	token, col, ok := sessionCollector(c)
	if !ok {
		return
	}

	var ev services.KeyEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	action := col.KeyAction(ev)
	switch action {
	case services.KeyAdvance:
		col.Next()
	case services.KeyBack:
		col.Back()
	case services.KeySubmit:
		submitSession(c, token, col)
		return
	}

	state := sessionState(token, col)
	state["action"] = actionName(action)
	c.JSON(http.StatusOK, state)
}

func actionName(a services.KeyAction) string {
	switch a {
	case services.KeyAdvance:
		return "advance"
	case services.KeyBack:
		return "back"
	case services.KeySubmit:
		return "submit"
	}
	return "none"
}

// POST /api/sessions/:sid/submit
func SubmitSession(c *gin.Context) {
	token, col, ok := sessionCollector(c)
	if !ok {
		return
	}
	submitSession(c, token, col)
}

func submitSession(c *gin.Context, token string, col *services.Collector) {
	response, err := col.Submit(c.Request.Context(), store, c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrContactPreferenceRequired):
			state := sessionState(token, col)
			state["message"] = "Contact preference is required"
			c.JSON(http.StatusBadRequest, state)
		case errors.Is(err, services.ErrAnswerRequired):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		case errors.Is(err, services.ErrAlreadySubmitted):
			c.JSON(http.StatusConflict, gin.H{"message": "Response already submitted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to submit response"})
		}
		return
	}

	sessionsSvc.Delete(token)
	c.JSON(http.StatusCreated, gin.H{"response_id": response.ID})
}
