package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/utils"
)

// saveDocument writes a modified question document back to the survey row.
func saveDocument(c *gin.Context, surveyID string, doc *models.SurveyDocument) bool {
	if err := doc.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return false
	}
	raw, err := doc.Marshal()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to encode survey data"})
		return false
	}
	if err := config.DB.Model(&models.Survey{}).
		Where("id = ?", surveyID).
		Update("survey_data", raw).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return false
	}
	return true
}

func surveyDocument(c *gin.Context) (models.Survey, *models.SurveyDocument, bool) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)
	doc, err := survey.Document()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to read survey data"})
		return survey, nil, false
	}
	return survey, doc, true
}

// POST /api/surveys/:id/questions
func AddQuestion(c *gin.Context) {
	survey, doc, ok := surveyDocument(c)
	if !ok {
		return
	}

	var q models.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if err := q.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if doc.Question(q.ID) != nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Question id already exists"})
		return
	}

	doc.Questions = append(doc.Questions, q)
	if !saveDocument(c, survey.ID, doc) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"question": q})
}

// PUT /api/surveys/:id/questions/:qid
func UpdateQuestion(c *gin.Context) {
	survey, doc, ok := surveyDocument(c)
	if !ok {
		return
	}

	qid := c.Param("qid")
	existing := doc.Question(qid)
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Question not found"})
		return
	}

	var q models.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	q.ID = qid
	if err := q.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	*existing = q
	if !saveDocument(c, survey.ID, doc) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": q})
}

// DELETE /api/surveys/:id/questions/:qid
func DeleteQuestion(c *gin.Context) {
	survey, doc, ok := surveyDocument(c)
	if !ok {
		return
	}

	qid := c.Param("qid")
	idx := -1
	for i := range doc.Questions {
		if doc.Questions[i].ID == qid {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Question not found"})
		return
	}

	doc.Questions = append(doc.Questions[:idx], doc.Questions[idx+1:]...)
	if !saveDocument(c, survey.ID, doc) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type reorderReq struct {
	SourceIndex int    `json:"source_index"`
	TargetIndex int    `json:"target_index"`
	Edge        string `json:"edge" binding:"required"`
}

// PUT /api/surveys/:id/questions/reorder
func ReorderQuestions(c *gin.Context) {
	survey, doc, ok := surveyDocument(c)
	if !ok {
		return
	}

	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	edge, err := utils.ParseEdge(req.Edge)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	reordered, err := utils.Reorder(doc.Questions, req.SourceIndex, req.TargetIndex, edge)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	doc.Questions = reordered
	if !saveDocument(c, survey.ID, doc) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": doc.Questions})
}

// PUT /api/surveys/:id/questions/:qid/options/reorder
func ReorderOptions(c *gin.Context) {
	survey, doc, ok := surveyDocument(c)
	if !ok {
		return
	}

	qid := c.Param("qid")
	q := doc.Question(qid)
	if q == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Question not found"})
		return
	}
	if !q.HasOptions() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Question has no options"})
		return
	}

	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	edge, err := utils.ParseEdge(req.Edge)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	reordered, err := utils.Reorder(q.Options, req.SourceIndex, req.TargetIndex, edge)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	q.Options = reordered
	if !saveDocument(c, survey.ID, doc) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": *q})
}
