package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/utils"
)

const (
	CtxUser    = "user"
	CtxProfile = "profileObj"
	CtxSurvey  = "surveyObj"
)

// AuthJWT checks Authorization: Bearer <token>, validates the JWT, loads the
// user row and injects it into the context.
func AuthJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		claims, err := utils.VerifyToken(rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		var user models.User
		if err := config.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// OptionalAuth injects the user when a valid token is present but never
// rejects the request. Public survey routes use it so owners previewing
// their own survey keep their identity.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.Next()
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		if claims, err := utils.VerifyToken(rawToken); err == nil {
			var user models.User
			if err := config.DB.First(&user, "id = ?", claims.UserID).Error; err == nil {
				c.Set(CtxUser, user)
			}
		}
		c.Next()
	}
}

// RequireAdmin blocks routes reserved for admin profiles.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		u := v.(models.User)

		var profile models.Profile
		if err := config.DB.First(&profile, "user_id = ?", u.ID).Error; err != nil || profile.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}
