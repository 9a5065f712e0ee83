package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
)

type profileSetupReq struct {
	Username  string  `json:"username" binding:"required,min=3,max=100"`
	FullName  string  `json:"full_name" binding:"required,min=1,max=255"`
	Role      string  `json:"role"`
	AvatarURL *string `json:"avatar_url"`
}

// POST /api/profile/setup
func SetupProfile(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req profileSetupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleBusiness {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		return
	}

	var taken int64
	config.DB.Model(&models.Profile{}).
		Where("username = ? AND user_id <> ?", req.Username, u.ID).
		Count(&taken)
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Username already taken"})
		return
	}

	var profile models.Profile
	if err := config.DB.First(&profile, "user_id = ?", u.ID).Error; err != nil {
		profile = models.Profile{UserID: u.ID}
	}
	profile.Username = &req.Username
	profile.FullName = &req.FullName
	profile.Role = role
	profile.AvatarURL = req.AvatarURL

	if err := config.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to save profile"})
		return
	}

	// gate caches profile rows; drop them so the next check sees the setup
	appGate.Invalidate(u.ID)

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GET /api/profile
func GetProfile(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var profile models.Profile
	if err := config.DB.Preload("Business").First(&profile, "user_id = ?", u.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Profile not found"})
		return
	}

	resp := gin.H{"profile": profile}
	if profile.Business != nil {
		resp["business"] = profile.Business
	}
	c.JSON(http.StatusOK, resp)
}
