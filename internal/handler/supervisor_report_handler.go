package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/internhub/internhub-api/internal/dto"
	"github.com/internhub/internhub-api/internal/models"
	"github.com/internhub/internhub-api/internal/service"
	appErrors "github.com/internhub/internhub-api/pkg/errors"
	"github.com/internhub/internhub-api/pkg/response"
)

// SupervisorReportHandler exposes the company-to-supervisor report feed.
type SupervisorReportHandler struct {
	service *service.SupervisorReportService
}

// NewSupervisorReportHandler constructs handler.
func NewSupervisorReportHandler(svc *service.SupervisorReportService) *SupervisorReportHandler {
	return &SupervisorReportHandler{service: svc}
}

// Create godoc
// @Summary File a report addressed to the student's supervisor
// @Tags SupervisorReports
// @Accept json
// @Produce json
// @Param payload body dto.CreateSupervisorReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/supervisor [post]
func (h *SupervisorReportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateSupervisorReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	report, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Get godoc
// @Summary Get supervisor report
// @Tags SupervisorReports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/supervisor/{id} [get]
func (h *SupervisorReportHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// List godoc
// @Summary List supervisor reports visible to the caller
// @Tags SupervisorReports
// @Produce json
// @Param application_id query string false "Application filter"
// @Param report_type query string false "Report type filter"
// @Param unread query bool false "Only unread reports"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /reports/supervisor [get]
func (h *SupervisorReportHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.SupervisorReportFilter{
		ApplicationID: c.Query("application_id"),
		ReportType:    models.SupervisorReportType(c.Query("report_type")),
		Limit:         parseIntQuery(c, "limit"),
		Offset:        parseIntQuery(c, "offset"),
	}
	if raw := c.Query("unread"); raw != "" {
		unread := raw == "true"
		filter.Unread = &unread
	}
	reports, err := h.service.List(c.Request.Context(), filter, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// MarkRead godoc
// @Summary Mark a supervisor report as read
// @Tags SupervisorReports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/supervisor/{id}/read [post]
func (h *SupervisorReportHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
