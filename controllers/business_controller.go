package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
)

type businessSetupReq struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Industry    *string `json:"industry"`
	Description *string `json:"description"`
}

// POST /api/business/setup
// Creates the business and links it to the caller's profile. The profile
// must be complete and carry the business role.
func SetupBusiness(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req businessSetupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var profile models.Profile
	if err := config.DB.First(&profile, "user_id = ?", u.ID).Error; err != nil || !profile.Complete() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Complete your profile first", "redirect": "/profile/setup"})
		return
	}
	if profile.Role != models.RoleBusiness && profile.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Business role required"})
		return
	}
	if profile.BusinessID != nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Profile already linked to a business"})
		return
	}

	business := models.Business{
		Name:        req.Name,
		Industry:    req.Industry,
		Description: req.Description,
		OwnerID:     profile.ID,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&business).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).
			Where("id = ?", profile.ID).
			Update("business_id", business.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to create business"})
		return
	}

	appGate.Invalidate(u.ID)

	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// GET /api/business
func GetBusiness(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var profile models.Profile
	if err := config.DB.First(&profile, "user_id = ?", u.ID).Error; err != nil || profile.BusinessID == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No business linked"})
		return
	}

	var business models.Business
	if err := config.DB.First(&business, "id = ?", *profile.BusinessID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Business not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": business})
}
