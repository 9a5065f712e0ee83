package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/models"
)

// CheckSurveyOwner loads the survey into the context and verifies it belongs
// to the caller's business. Admin profiles may operate on any survey.
func CheckSurveyOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := c.MustGet(CtxUser).(models.User)

		id := c.Param("id")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid survey ID"})
			return
		}

		var survey models.Survey
		if err := config.DB.First(&survey, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Survey not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Unable to load survey"})
			return
		}

		profile, ok := contextProfile(c, u.ID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Profile required"})
			return
		}

		if profile.Role != models.RoleAdmin {
			if profile.BusinessID == nil || *profile.BusinessID != survey.BusinessID {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You do not have access to this survey"})
				return
			}
		}

		c.Set(CtxSurvey, survey)
		c.Next()
	}
}

// contextProfile returns the gate-loaded profile when present, falling back
// to a direct lookup.
func contextProfile(c *gin.Context, userID string) (models.Profile, bool) {
	if v, ok := c.Get(CtxProfile); ok {
		return v.(models.Profile), true
	}
	var profile models.Profile
	if err := config.DB.First(&profile, "user_id = ?", userID).Error; err != nil {
		return models.Profile{}, false
	}
	c.Set(CtxProfile, profile)
	return profile, true
}
