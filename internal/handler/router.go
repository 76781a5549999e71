package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interview-scheduler-api/internal/middleware"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	"github.com/noah-isme/interview-scheduler-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Candidate   *CandidateHandler
	Interviewer *InterviewerHandler
	Schedule    *ScheduleHandler
	Interview   *InterviewHandler
	Report      *ReportHandler
}

// RegisterRoutes attaches every endpoint under the API prefix. Reads are open
// to all authenticated roles, mutations require coordinator or admin.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)
	protected.GET("/users", middleware.RequireRoles(models.RoleAdmin), h.Auth.Users)

	write := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)

	protected.GET("/candidates", h.Candidate.List)
	protected.GET("/candidates/:id", h.Candidate.Get)
	protected.POST("/candidates", write, h.Candidate.Create)
	protected.PUT("/candidates/:id", write, h.Candidate.Update)
	protected.DELETE("/candidates/:id", write, h.Candidate.Delete)

	protected.GET("/interviewers", h.Interviewer.List)
	protected.GET("/interviewers/:id", h.Interviewer.Get)
	protected.POST("/interviewers", write, h.Interviewer.Create)
	protected.PUT("/interviewers/:id", write, h.Interviewer.Update)
	protected.DELETE("/interviewers/:id", write, h.Interviewer.Delete)

	protected.POST("/schedule/generate", write, h.Schedule.Generate)
	protected.POST("/schedule/compare", h.Schedule.Compare)

	protected.GET("/interviews", h.Interview.List)
	protected.GET("/interviews/:id", h.Interview.Get)
	protected.POST("/interviews/:id/complete", write, h.Interview.Complete)
	protected.POST("/interviews/:id/cancel", write, h.Interview.Cancel)
	protected.POST("/interviews/:id/reactivate", write, h.Interview.Reactivate)
	protected.POST("/interviews/:id/undo-complete", write, h.Interview.UndoComplete)
	protected.POST("/interviews/:id/reschedule", write, h.Interview.Reschedule)
	protected.GET("/history", h.Interview.History)

	protected.GET("/dashboard/today", h.Interview.Today)
	protected.GET("/dashboard/stats", h.Interview.Stats)

	if h.Report != nil {
		protected.POST("/reports", write, h.Report.Create)
		protected.GET("/reports/:id", h.Report.Get)
		protected.GET("/reports/:id/download", h.Report.Download)
	}
}
