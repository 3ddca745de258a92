package handlers

import (
	"net/http"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// NewsletterHandler handles mailing list requests
type NewsletterHandler struct {
	service   newsletter.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(service newsletter.Service, log *logger.Logger, val *validator.Validator) *NewsletterHandler {
	return &NewsletterHandler{service: service, logger: log, validator: val}
}

// Subscribe adds an address to the list
// @Summary Subscribe to newsletter
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param request body dto.SubscribeRequest true "Subscriber"
// @Success 201 {object} newsletter.Subscriber
// @Failure 409 {object} utils.ErrorResponse "Already subscribed"
// @Router /api/newsletter/subscribe [post]
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.SubscribeRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	sub, err := h.service.Subscribe(r.Context(), req.Email, req.Name, req.Source)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, sub)
}

// Unsubscribe removes an address by token
// @Summary Unsubscribe from newsletter
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param request body dto.UnsubscribeRequest true "Token"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/newsletter/unsubscribe [post]
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.UnsubscribeRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	if err := h.service.Unsubscribe(r.Context(), req.Token); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "You have been unsubscribed", nil)
}

// ListSubscribers lists subscribers
// @Summary List subscribers
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(subscribed, unsubscribed)
// @Param search query string false "Email or name fragment"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/newsletter/admin/subscribers [get]
func (h *NewsletterHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)
	status := newsletter.SubscriberStatus(r.URL.Query().Get("status"))
	if status != "" && status != newsletter.SubscriberSubscribed && status != newsletter.SubscriberUnsubscribed {
		utils.WriteError(w, errors.BadRequest("Invalid status"))
		return
	}

	subs, total, err := h.service.ListSubscribers(r.Context(), newsletter.SubscriberFilter{
		Status: status,
		Search: r.URL.Query().Get("search"),
		Limit:  p.PageSize,
		Offset: p.Offset,
	})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	writePage(w, subs, p, total)
}

// DeleteSubscriber removes a subscriber
// @Summary Delete subscriber
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Subscriber ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/newsletter/admin/subscribers/{id} [delete]
func (h *NewsletterHandler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if err := h.service.DeleteSubscriber(r.Context(), id); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Subscriber deleted", nil)
}

// ListMessages lists newsletter issues
// @Summary List messages
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/newsletter/admin/messages [get]
func (h *NewsletterHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)
	msgs, total, err := h.service.ListMessages(r.Context(), p.PageSize, p.Offset)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	writePage(w, msgs, p, total)
}

// GetMessage returns a newsletter issue
// @Summary Get message
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} newsletter.Message
// @Router /api/newsletter/admin/messages/{id} [get]
func (h *NewsletterHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	msg, err := h.service.GetMessage(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, msg)
}

// CreateMessage drafts a newsletter issue
// @Summary Create message
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateMessageRequest true "Message"
// @Success 201 {object} newsletter.Message
// @Router /api/newsletter/admin/messages [post]
func (h *NewsletterHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMessageRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	userID, _ := actor(r)
	msg, err := h.service.CreateMessage(r.Context(), userID, req.Subject, req.Body)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, msg)
}

// UpdateMessage edits a draft
// @Summary Update message
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Param request body dto.UpdateMessageRequest true "Changes"
// @Success 200 {object} newsletter.Message
// @Failure 409 {object} utils.ErrorResponse "Message already sent"
// @Router /api/newsletter/admin/messages/{id} [put]
func (h *NewsletterHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.UpdateMessageRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	msg, err := h.service.UpdateMessage(r.Context(), id, req.Subject, req.Body)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, msg)
}

// DeleteMessage removes a newsletter issue
// @Summary Delete message
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/newsletter/admin/messages/{id} [delete]
func (h *NewsletterHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if err := h.service.DeleteMessage(r.Context(), id); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Message deleted", nil)
}

// Send starts delivery of a newsletter issue
// @Summary Send message
// @Description Marks the message as sending and dispatches delivery in the background
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 202 {object} newsletter.Message
// @Failure 409 {object} utils.ErrorResponse "Message is not a draft"
// @Router /api/newsletter/admin/messages/{id}/send [post]
func (h *NewsletterHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	msg, err := h.service.Send(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusAccepted, msg)
}
