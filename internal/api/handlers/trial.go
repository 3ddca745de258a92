package handlers

import (
	"net/http"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// TrialHandler handles free trial requests
type TrialHandler struct {
	service   trial.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewTrialHandler creates a new trial handler
func NewTrialHandler(service trial.Service, log *logger.Logger, val *validator.Validator) *TrialHandler {
	return &TrialHandler{service: service, logger: log, validator: val}
}

// Start begins a free trial
// @Summary Start trial
// @Tags Trials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartTrialRequest true "Product"
// @Success 201 {object} trial.Trial
// @Failure 409 {object} utils.ErrorResponse "Trial already used or product owned"
// @Router /api/trials/start [post]
func (h *TrialHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartTrialRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	userID, _ := actor(r)
	t, err := h.service.Start(r.Context(), userID, req.ProductID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, t)
}

// MyTrials lists the caller's trials
// @Summary List my trials
// @Tags Trials
// @Produce json
// @Security BearerAuth
// @Success 200 {array} trial.Trial
// @Router /api/trials/my-trials [get]
func (h *TrialHandler) MyTrials(w http.ResponseWriter, r *http.Request) {
	userID, _ := actor(r)
	trials, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, trials)
}

// GetByProduct returns the caller's trial for a product
// @Summary Get my trial for a product
// @Tags Trials
// @Produce json
// @Security BearerAuth
// @Param productId path int true "Product ID"
// @Success 200 {object} trial.Trial
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/trials/product/{productId} [get]
func (h *TrialHandler) GetByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	userID, _ := actor(r)
	t, err := h.service.GetMine(r.Context(), userID, productID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, t)
}

// Access reports whether the caller may use a product
// @Summary Check product access
// @Tags Trials
// @Produce json
// @Security BearerAuth
// @Param productId path int true "Product ID"
// @Success 200 {object} trial.AccessStatus
// @Router /api/trials/access/{productId} [get]
func (h *TrialHandler) Access(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productId")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	userID, _ := actor(r)
	status, err := h.service.CheckAccess(r.Context(), userID, productID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, status)
}

// ListAll lists every trial
// @Summary List all trials
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(active, expired, converted, cancelled)
// @Param user_id query int false "User ID"
// @Param product_id query int false "Product ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/trials/admin/all [get]
func (h *TrialHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)
	status := trial.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		utils.WriteError(w, errors.BadRequest("Invalid status"))
		return
	}

	trials, total, err := h.service.ListAll(r.Context(), trial.Filter{
		UserID:    queryInt64(r, "user_id"),
		ProductID: queryInt64(r, "product_id"),
		Status:    status,
		Limit:     p.PageSize,
		Offset:    p.Offset,
	})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	writePage(w, trials, p, total)
}

// Stats summarises trials
// @Summary Trial statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} trial.Stats
// @Router /api/trials/admin/stats [get]
func (h *TrialHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, stats)
}

// Extend pushes a trial's expiry out
// @Summary Extend trial
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trial ID"
// @Param request body dto.ExtendTrialRequest true "Days"
// @Success 200 {object} trial.Trial
// @Router /api/trials/admin/{id}/extend [post]
func (h *TrialHandler) Extend(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.ExtendTrialRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	t, err := h.service.Extend(r.Context(), id, req.Days)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, t)
}

// Cancel ends a trial
// @Summary Cancel trial
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trial ID"
// @Success 200 {object} trial.Trial
// @Router /api/trials/admin/{id}/cancel [post]
func (h *TrialHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	t, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, t)
}
