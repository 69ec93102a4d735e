package handlers

import (
	"net/http"

	"github.com/evalytics-ai/assessment-service/internal/middleware"
	"github.com/evalytics-ai/assessment-service/internal/services"
	"github.com/evalytics-ai/assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// HandlerManager holds every HTTP handler and wires them onto the router.
type HandlerManager struct {
	auth        *AuthHandler
	assessments *AssessmentHandler
	sessions    *SessionHandler
	results     *ResultHandler
	interviews  *InterviewHandler

	authService services.AuthService
}

func NewHandlerManager(
	authService services.AuthService,
	assessmentService services.AssessmentService,
	sessionService services.SessionService,
	resultService services.ResultService,
	interviewService services.InterviewService,
	secureCookies bool,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		auth:        NewAuthHandler(authService, secureCookies, logger),
		assessments: NewAssessmentHandler(assessmentService, authService, logger),
		sessions:    NewSessionHandler(sessionService, logger),
		results:     NewResultHandler(resultService, authService, logger),
		interviews:  NewInterviewHandler(interviewService, logger),
		authService: authService,
	}
}

// SetupRoutes registers all routes on the engine.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// Public routes.
	auth := api.Group("/auth")
	{
		auth.POST("/signup", hm.auth.Register)
		auth.POST("/login", hm.auth.Login)
	}

	// Authenticated routes.
	authed := api.Group("")
	authed.Use(middleware.Auth(hm.authService))
	{
		authed.POST("/auth/logout", hm.auth.Logout)
		authed.GET("/auth/me", hm.auth.Profile)

		assessments := authed.Group("/assessments")
		{
			assessments.GET("", hm.assessments.List)
			assessments.GET("/:id", hm.assessments.Get)
		}

		sessions := authed.Group("/sessions")
		{
			sessions.POST("/start/:assessment_id", hm.sessions.Start)
			sessions.GET("/:session_id", hm.sessions.State)
			sessions.POST("/:session_id/visit", hm.sessions.Visit)
			sessions.POST("/:session_id/answers", hm.sessions.SaveAnswer)
			sessions.POST("/:session_id/proctor", hm.sessions.Proctor)
			sessions.POST("/:session_id/run-code", hm.sessions.RunCode)
			sessions.POST("/:session_id/submit", hm.sessions.Submit)
			sessions.POST("/:session_id/beacon", hm.sessions.Beacon)
		}

		results := authed.Group("/results")
		{
			results.GET("", hm.results.List)
			results.GET("/certifications", hm.results.Certifications)
			results.GET("/:id", hm.results.Get)
		}

		interviews := authed.Group("/interviews")
		{
			interviews.GET("", hm.interviews.List)
			interviews.POST("/start/:interview_id", hm.interviews.Start)
			interviews.POST("/sessions/:session_id/submit", hm.interviews.Submit)
			interviews.GET("/results", hm.interviews.Results)
		}
	}

	// Admin routes.
	admin := api.Group("/admin")
	admin.Use(middleware.Auth(hm.authService), middleware.RequireAdmin())
	{
		admin.POST("/assessments", hm.assessments.Create)
		admin.GET("/assessments/:id/stats", hm.assessments.Stats)
		admin.GET("/results/export/:assessment_id", hm.results.Export)
	}
}
