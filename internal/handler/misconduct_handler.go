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

// MisconductHandler exposes misconduct report endpoints.
type MisconductHandler struct {
	service *service.MisconductService
}

// NewMisconductHandler constructs handler.
func NewMisconductHandler(svc *service.MisconductService) *MisconductHandler {
	return &MisconductHandler{service: svc}
}

// Create godoc
// @Summary File a misconduct report against a hired student
// @Tags Misconduct
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param payload body dto.CreateMisconductRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/misconduct [post]
func (h *MisconductHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateMisconductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	report, err := h.service.Create(c.Request.Context(), claims.UserID, req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Get godoc
// @Summary Get misconduct report
// @Tags Misconduct
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/misconduct/{id} [get]
func (h *MisconductHandler) Get(c *gin.Context) {
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
// @Summary List misconduct reports visible to the caller
// @Tags Misconduct
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /reports/misconduct [get]
func (h *MisconductHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.MisconductFilter{
		Status: models.MisconductStatus(c.Query("status")),
		Limit:  parseIntQuery(c, "limit"),
		Offset: parseIntQuery(c, "offset"),
	}
	reports, err := h.service.List(c.Request.Context(), filter, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Resolve godoc
// @Summary Record the supervisor's resolution of a misconduct report
// @Tags Misconduct
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ResolveMisconductRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/misconduct/{id}/resolve [post]
func (h *MisconductHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ResolveMisconductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	report, err := h.service.Resolve(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
