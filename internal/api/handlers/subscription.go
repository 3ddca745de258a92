package handlers

import (
	"context"
	"net/http"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// SubscriptionHandler handles subscription requests
type SubscriptionHandler struct {
	service   subscription.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(service subscription.Service, log *logger.Logger, val *validator.Validator) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, logger: log, validator: val}
}

// ListMine lists the caller's subscriptions
// @Summary List my subscriptions
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(active, paused, cancelled, expired)
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/subscriptions [get]
func (h *SubscriptionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := actor(r)
	h.list(w, r, userID)
}

// ListAll lists every subscription
// @Summary List all subscriptions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(active, paused, cancelled, expired)
// @Param user_id query int false "User ID"
// @Param product_id query int false "Product ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/admin/subscriptions [get]
func (h *SubscriptionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, queryInt64(r, "user_id"))
}

func (h *SubscriptionHandler) list(w http.ResponseWriter, r *http.Request, userID int64) {
	p := utils.ParsePaginationParams(r)
	status := subscription.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		utils.WriteError(w, errors.BadRequest("Invalid status"))
		return
	}

	subs, total, err := h.service.List(r.Context(), subscription.Filter{
		UserID:    userID,
		ProductID: queryInt64(r, "product_id"),
		Status:    status,
		Limit:     p.PageSize,
		Offset:    p.Offset,
	})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	writePage(w, subs, p, total)
}

// Create starts a subscription for a user
// @Summary Create subscription
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubscriptionRequest true "Subscription"
// @Success 201 {object} subscription.Subscription
// @Failure 409 {object} utils.ErrorResponse "Already subscribed"
// @Router /api/admin/subscriptions [post]
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSubscriptionRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	sub, err := h.service.Create(r.Context(), req.UserID, req.ProductID, req.Interval, nil)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, sub)
}

// Cancel cancels a subscription
// @Summary Cancel subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subscription ID"
// @Success 200 {object} subscription.Subscription
// @Failure 409 {object} utils.ErrorResponse "Invalid transition"
// @Router /api/subscriptions/{id}/cancel [post]
// @Router /api/admin/subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	actorID, isAdmin := actor(r)
	sub, err := h.service.Cancel(r.Context(), actorID, isAdmin, id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sub)
}

// Pause pauses an active subscription
// @Summary Pause subscription
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subscription ID"
// @Success 200 {object} subscription.Subscription
// @Router /api/admin/subscriptions/{id}/pause [post]
func (h *SubscriptionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Pause)
}

// Resume reactivates a paused subscription
// @Summary Resume subscription
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subscription ID"
// @Success 200 {object} subscription.Subscription
// @Router /api/admin/subscriptions/{id}/resume [post]
func (h *SubscriptionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resume)
}

func (h *SubscriptionHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (*subscription.Subscription, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	sub, err := fn(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, sub)
}
