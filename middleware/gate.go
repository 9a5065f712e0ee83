package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/services"
)

// RequireBusinessAccess runs the access gate for the authenticated user and
// rejects the request with the gate's redirect target when it does not pass.
// The loaded profile lands in the context for controllers.
func RequireBusinessAccess(gate *services.Gate, opts services.GateOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if v, ok := c.Get(CtxUser); ok {
			userID = v.(models.User).ID
		}

		decision, err := gate.Evaluate(c.Request.Context(), userID, opts)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Unable to evaluate access"})
			return
		}
		if !decision.Allow {
			status := http.StatusForbidden
			if decision.Redirect == services.RedirectSignIn {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"message": "Access denied", "redirect": decision.Redirect})
			return
		}

		if decision.Profile != nil {
			c.Set(CtxProfile, *decision.Profile)
		}
		c.Next()
	}
}
