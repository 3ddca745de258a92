package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/spartanofurioso/platform/internal/domain/upload"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
)

// multipartOverhead allows for form boundaries and headers around the file
const multipartOverhead = 1 << 20

// UploadHandler handles admin file uploads
type UploadHandler struct {
	service upload.Service
	maxSize int64
	logger  *logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service upload.Service, maxSize int64, log *logger.Logger) *UploadHandler {
	if maxSize <= 0 {
		maxSize = upload.DefaultMaxSize
	}
	return &UploadHandler{service: service, maxSize: maxSize, logger: log}
}

// Upload stores a file
// @Summary Upload file
// @Description Accepts images, PDF and MP4 in the multipart field "file"
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Success 201 {object} dto.UploadResponse
// @Failure 413 {object} utils.ErrorResponse "File too large"
// @Failure 400 {object} utils.ErrorResponse "Unsupported file type"
// @Router /api/upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			utils.WriteError(w, errors.PayloadTooLarge("File is too large"))
			return
		}
		utils.WriteError(w, errors.BadRequest("Multipart field 'file' is required"))
		return
	}
	defer file.Close()

	res, err := h.service.Upload(r.Context(), file, header.Size)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, res)
}
