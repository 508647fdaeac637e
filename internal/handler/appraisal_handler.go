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

// AppraisalHandler exposes internship appraisal endpoints.
type AppraisalHandler struct {
	service     *service.AppraisalService
	attachments *service.AttachmentService
}

// NewAppraisalHandler constructs handler.
func NewAppraisalHandler(svc *service.AppraisalService, attachments *service.AttachmentService) *AppraisalHandler {
	return &AppraisalHandler{service: svc, attachments: attachments}
}

// Create godoc
// @Summary File an end-of-term appraisal for a hired student
// @Tags Appraisals
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param payload body dto.CreateAppraisalRequest true "Appraisal payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/appraisals [post]
func (h *AppraisalHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateAppraisalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appraisal payload"))
		return
	}
	appraisal, err := h.service.Create(c.Request.Context(), claims.UserID, req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appraisal)
}

// Get godoc
// @Summary Get appraisal
// @Tags Appraisals
// @Produce json
// @Param id path string true "Appraisal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/appraisals/{id} [get]
func (h *AppraisalHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	appraisal, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}

// List godoc
// @Summary List appraisals visible to the caller
// @Tags Appraisals
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /reports/appraisals [get]
func (h *AppraisalHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.AppraisalFilter{
		Status: models.AppraisalStatus(c.Query("status")),
		Limit:  parseIntQuery(c, "limit"),
		Offset: parseIntQuery(c, "offset"),
	}
	appraisals, err := h.service.List(c.Request.Context(), filter, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisals, nil)
}

// UploadAttachments godoc
// @Summary Attach supporting files to an appraisal
// @Tags Appraisals
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Appraisal ID"
// @Param attachments formData file true "Attachment files"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/appraisals/{id}/attachments [post]
func (h *AppraisalHandler) UploadAttachments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}
	files := form.File["attachments"]
	if len(files) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one attachment is required"))
		return
	}

	uploads := make([]service.AttachmentUpload, 0, len(files))
	for _, fh := range files {
		file, openErr := fh.Open()
		if openErr != nil {
			response.Error(c, appErrors.Wrap(openErr, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read attachment"))
			return
		}
		defer file.Close()
		uploads = append(uploads, service.AttachmentUpload{
			Filename: fh.Filename,
			Size:     fh.Size,
			MimeType: fh.Header.Get("Content-Type"),
			Content:  file,
		})
	}

	paths, err := h.attachments.StoreAll("appraisals/"+c.Param("id"), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}

	appraisal, err := h.service.AddAttachments(c.Request.Context(), c.Param("id"), claims.UserID, paths)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}

// UpdateStatus godoc
// @Summary Move an appraisal to reviewed or archived
// @Tags Appraisals
// @Accept json
// @Produce json
// @Param id path string true "Appraisal ID"
// @Param payload body object true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/appraisals/{id}/status [patch]
func (h *AppraisalHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Status models.AppraisalStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}
	appraisal, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), claims.UserID, payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}
