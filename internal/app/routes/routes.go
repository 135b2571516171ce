package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/careportal/internal/app/controllers"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/middleware"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

// Controllers groups the handlers mounted by SetupRouter.
type Controllers struct {
	Auth        *controllers.AuthController
	Application *controllers.ApplicationController
	Referral    *controllers.ReferralController
	Student     *controllers.StudentController
	Feed        *controllers.FeedController
	FeedSocket  *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.POST("/auth/login", c.Auth.Login)
	v1.POST("/applications", c.Application.Submit)
	v1.GET("/departments", c.Feed.Departments)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/auth/me", c.Auth.Me)

	staff := authenticated.Group("/staff")
	staff.Use(authMiddleware.RoleRequired(models.RoleCareStaff))
	{
		staff.POST("", c.Auth.CreateStaff)
	}

	applications := authenticated.Group("/applications")
	{
		applicant := applications.Group("/me")
		applicant.Use(authMiddleware.RoleRequired(models.RoleApplicant))
		{
			applicant.GET("", c.Application.GetMine)
			applicant.POST("/time-in", c.Application.TimeIn)
			applicant.POST("/time-out", c.Application.TimeOut)
		}

		applications.GET("/:id", authMiddleware.RoleRequired(models.RoleApplicant, models.RoleCareStaff), c.Application.Get)
		applications.POST("/:id/activate", authMiddleware.RoleRequired(models.RoleApplicant, models.RoleCareStaff), c.Application.Activate)

		console := applications.Group("")
		console.Use(authMiddleware.RoleRequired(models.RoleCareStaff))
		{
			console.GET("", c.Application.List)
			console.PATCH("/:id/status", c.Application.UpdateStatus)
		}
	}

	students := authenticated.Group("/students")
	students.Use(authMiddleware.RoleRequired(models.RoleStudent, models.RoleDepartmentReferrer, models.RoleCareStaff))
	{
		students.GET("/:studentId", c.Student.GetProfile)
		students.PATCH("/:studentId", c.Student.UpdateProfile)
	}

	requests := authenticated.Group("/requests")
	{
		student := requests.Group("")
		student.Use(authMiddleware.RoleRequired(models.RoleStudent))
		{
			student.POST("", c.Referral.Submit)
			student.GET("/mine", c.Referral.ListMine)
			student.POST("/:id/rate", c.Referral.Rate)
		}

		staffOnly := requests.Group("")
		staffOnly.Use(authMiddleware.RoleRequired(models.RoleDepartmentReferrer, models.RoleCareStaff))
		{
			staffOnly.GET("", c.Referral.List)
			staffOnly.POST("/:id/forward", c.Referral.Forward)
			staffOnly.POST("/:id/schedule", c.Referral.Schedule)
			staffOnly.POST("/:id/complete", c.Referral.Complete)
			staffOnly.POST("/:id/reject", c.Referral.Reject)
		}

		requests.GET("/:id", c.Referral.Get)
	}

	feed := authenticated.Group("/feed")
	{
		feed.GET("/:table", c.Feed.Snapshot)
		feed.GET("/:table/ws", c.FeedSocket.HandleConnection)
	}
}
