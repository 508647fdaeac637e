package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/internhub/internhub-api/internal/middleware"
	"github.com/internhub/internhub-api/internal/models"
	"github.com/internhub/internhub-api/internal/service"
)

// Handlers aggregates every HTTP handler for route registration.
type Handlers struct {
	Auth              *AuthHandler
	Applications      *ApplicationHandler
	Offers            *OfferHandler
	Misconduct        *MisconductHandler
	Progress          *ProgressHandler
	Appraisals        *AppraisalHandler
	SupervisorReports *SupervisorReportHandler
	Documents         *DocumentHandler
	Notifications     *NotificationHandler
	Metrics           *MetricsHandler
}

// RegisterRoutes mounts the API surface under the configured prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	// Signed download tokens carry their own authorization.
	api.GET("/export/:token", h.Documents.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	secured.GET("/auth/me", h.Auth.Me)

	supervisorOnly := middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin)
	companyOnly := middleware.RequireRoles(models.RoleCompany, models.RoleAdmin)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	applications := secured.Group("/applications")
	{
		applications.GET("", h.Applications.List)
		applications.GET("/:id", h.Applications.Get)
		applications.GET("/:id/offer", h.Offers.GetByApplication)
		applications.POST("/:id/supervisor-review", supervisorOnly, h.Applications.SupervisorReview)
		applications.POST("/:id/resubmit", studentOnly, h.Applications.Resubmit)
		applications.POST("/:id/company-review", companyOnly, h.Applications.CompanyReview)
		applications.POST("/:id/interview", companyOnly, h.Applications.ScheduleInterview)
		applications.POST("/:id/interview-done", companyOnly, h.Applications.InterviewDone)
		applications.POST("/:id/hire", companyOnly, h.Applications.Hire)
		applications.POST("/:id/reject", companyOnly, h.Applications.Reject)
	}

	offers := secured.Group("/offers")
	{
		offers.GET("", h.Offers.List)
		offers.GET("/:id", h.Offers.Get)
		offers.POST("/:id/respond", studentOnly, h.Offers.Respond)
	}

	misconduct := secured.Group("/reports/misconduct")
	{
		misconduct.POST("", companyOnly, h.Misconduct.Create)
		misconduct.GET("", h.Misconduct.List)
		misconduct.GET("/:id", h.Misconduct.Get)
		misconduct.POST("/:id/resolve", supervisorOnly, h.Misconduct.Resolve)
	}

	progress := secured.Group("/reports/progress")
	{
		progress.POST("", companyOnly, h.Progress.Create)
		progress.GET("", h.Progress.List)
		progress.GET("/:id", h.Progress.Get)
		progress.POST("/:id/review", supervisorOnly, h.Progress.Review)
	}

	appraisals := secured.Group("/reports/appraisals")
	{
		appraisals.POST("", companyOnly, h.Appraisals.Create)
		appraisals.GET("", h.Appraisals.List)
		appraisals.GET("/:id", h.Appraisals.Get)
		appraisals.POST("/:id/attachments", companyOnly, h.Appraisals.UploadAttachments)
		appraisals.PATCH("/:id/status", supervisorOnly, h.Appraisals.UpdateStatus)
	}

	supervisorReports := secured.Group("/reports/supervisor")
	{
		supervisorReports.POST("", companyOnly, h.SupervisorReports.Create)
		supervisorReports.GET("", h.SupervisorReports.List)
		supervisorReports.GET("/:id", h.SupervisorReports.Get)
		supervisorReports.POST("/:id/read", supervisorOnly, h.SupervisorReports.MarkRead)
	}

	documents := secured.Group("/documents")
	{
		documents.POST("", h.Documents.Create)
		documents.GET("/:id", h.Documents.Status)
	}

	notifications := secured.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.POST("/:id/read", h.Notifications.MarkRead)
	}
}
