package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/devmarked/feedbackiq/controllers"
	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/services"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	// the dashboard gate: complete profile with a business-capable role
	businessAccess := middleware.RequireBusinessAccess(controllers.Gate(), services.GateOptions{
		RequireProfile:  true,
		RequireBusiness: true,
		AllowedRoles:    []string{models.RoleBusiness, models.RoleAdmin},
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.GET("/me", middleware.AuthJWT(), controllers.Me)
		}

		profile := api.Group("/profile")
		profile.Use(middleware.AuthJWT())
		{
			profile.GET("", controllers.GetProfile)
			profile.POST("/setup", controllers.SetupProfile)
		}

		business := api.Group("/business")
		business.Use(middleware.AuthJWT())
		{
			business.GET("", controllers.GetBusiness)
			business.POST("/setup", controllers.SetupBusiness)
		}

		surveys := api.Group("/surveys")
		surveys.Use(middleware.AuthJWT(), businessAccess)
		{
			surveys.POST("", middleware.RateLimitSurveyCreate(), controllers.CreateSurvey)
			surveys.GET("", controllers.ListMySurveys)
			surveys.GET("/:id", middleware.CheckSurveyOwner(), controllers.GetSurvey)
			surveys.PUT("/:id", middleware.CheckSurveyOwner(), controllers.UpdateSurvey)
			surveys.DELETE("/:id", middleware.CheckSurveyOwner(), controllers.DeleteSurvey)
			surveys.PATCH("/:id/status", middleware.CheckSurveyOwner(), controllers.UpdateSurveyStatus)
			surveys.POST("/:id/clone", middleware.CheckSurveyOwner(), controllers.CloneSurvey)

			surveys.POST("/:id/questions", middleware.CheckSurveyOwner(), controllers.AddQuestion)
			surveys.PUT("/:id/questions/reorder", middleware.CheckSurveyOwner(), controllers.ReorderQuestions)
			surveys.PUT("/:id/questions/:qid", middleware.CheckSurveyOwner(), controllers.UpdateQuestion)
			surveys.DELETE("/:id/questions/:qid", middleware.CheckSurveyOwner(), controllers.DeleteQuestion)
			surveys.PUT("/:id/questions/:qid/options/reorder", middleware.CheckSurveyOwner(), controllers.ReorderOptions)

			surveys.GET("/:id/responses", middleware.CheckSurveyOwner(), controllers.ListResponses)
			surveys.GET("/:id/responses/export", middleware.CheckSurveyOwner(), controllers.DownloadResponsesCSV)
			surveys.GET("/:id/responses/:rid", middleware.CheckSurveyOwner(), controllers.GetResponse)
			surveys.POST("/:id/export", middleware.CheckSurveyOwner(), controllers.CreateExport)
			surveys.GET("/:id/qr", middleware.CheckSurveyOwner(), controllers.SurveyQR)

			surveys.POST("/:id/analyze", middleware.RateLimitAnalyze(), middleware.CheckSurveyOwner(), controllers.AnalyzeSurvey)
			surveys.GET("/:id/ai-insights", middleware.CheckSurveyOwner(), controllers.GetInsights)
			surveys.GET("/:id/ai-data", middleware.CheckSurveyOwner(), controllers.GetAIData)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthJWT(), middleware.RequireAdmin())
		{
			admin.GET("/surveys", controllers.AdminListSurveys)
		}

		api.GET("/activity", middleware.AuthJWT(), businessAccess, controllers.ListActivity)
		api.GET("/exports/:job_id", middleware.AuthJWT(), controllers.GetExport)

		// respondent-facing routes, no auth
		public := api.Group("/surveys/public")
		{
			public.GET("/:id", middleware.OptionalAuth(), controllers.GetPublicSurvey)
			public.POST("/:id/responses", middleware.RateLimitResponseSubmit(), controllers.SubmitResponse)
			public.POST("/:id/sessions", middleware.RateLimitResponseSubmit(), controllers.CreateSession)
		}

		sessions := api.Group("/sessions")
		{
			sessions.GET("/:sid", controllers.GetSession)
			sessions.PUT("/:sid/contact", controllers.SetSessionContact)
			sessions.PUT("/:sid/answer", controllers.RecordSessionAnswer)
			sessions.POST("/:sid/next", controllers.AdvanceSession)
			sessions.POST("/:sid/back", controllers.SessionBack)
			sessions.POST("/:sid/key", controllers.SessionKey)
			sessions.POST("/:sid/submit", middleware.RateLimitResponseSubmit(), controllers.SubmitSession)
		}
	}
}
