package app

import (
	"exam_portal_backend/docs"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/middleware"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	// Swagger 文档
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	// Prometheus 指标
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 公共接口
		api.POST("/signup", c.auth.Signup)
		api.POST("/login", c.auth.Login)
		api.POST("/forgot_password", c.auth.ForgotPassword)
		api.POST("/reset_password/:token", c.auth.ResetPassword)
		api.GET("/leaderboard", c.leaderboard.GetLeaderboard)

		// 登录后接口
		auth := api.Group("")
		auth.Use(middleware.AuthMiddleware(cfg))
		{
			auth.GET("/logout", c.auth.Logout)
			auth.GET("/profile", c.user.GetProfile)
			auth.PUT("/profile", c.user.UpdateProfile)
			auth.POST("/profile/avatar", c.user.UploadAvatar)

			// 学生考试接口，需审核通过
			exam := auth.Group("/exam")
			exam.Use(middleware.RoleMiddleware(model.Student))
			exam.Use(middleware.ApprovedMiddleware())
			{
				exam.GET("/:category", c.exam.GetExam)
				exam.POST("/:category", c.exam.SubmitExam)
			}

			// 管理员接口
			admin := auth.Group("/admin")
			admin.Use(middleware.RoleMiddleware(model.Admin))
			{
				admin.GET("", c.admin.GetDashboard)
				admin.POST("", c.admin.Act)
			}
		}
	}
}
