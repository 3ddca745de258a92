package handlers

import (
	"io"
	"net/http"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// maxWebhookBytes bounds Stripe webhook payloads
const maxWebhookBytes = 64 << 10

// OrderHandler handles order and payment requests
type OrderHandler struct {
	service   order.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service order.Service, log *logger.Logger, val *validator.Validator) *OrderHandler {
	return &OrderHandler{service: service, logger: log, validator: val}
}

// Create places an order
// @Summary Create order
// @Description Creates a pending order; Stripe orders include a checkout URL
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOrderRequest true "Order"
// @Success 201 {object} order.Checkout
// @Failure 409 {object} utils.ErrorResponse "Already owned"
// @Router /api/orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	userID, _ := actor(r)
	checkout, err := h.service.Create(r.Context(), userID, req.ProductID, order.PaymentMethod(req.PaymentMethod))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, checkout)
}

// ListMine lists the caller's orders
// @Summary List my orders
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, paid, cancelled, refunded)
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/orders [get]
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := actor(r)
	h.list(w, r, userID)
}

// ListAll lists every order
// @Summary List all orders
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, paid, cancelled, refunded)
// @Param user_id query int false "User ID"
// @Param product_id query int false "Product ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/orders/admin/all [get]
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, queryInt64(r, "user_id"))
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, userID int64) {
	p := utils.ParsePaginationParams(r)
	status := order.Status(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		utils.WriteError(w, errors.BadRequest("Invalid status"))
		return
	}

	orders, total, err := h.service.List(r.Context(), order.Filter{
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
	writePage(w, orders, p, total)
}

// Get returns an order
// @Summary Get order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/orders/{id} [get]
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	actorID, isAdmin := actor(r)
	o, err := h.service.Get(r.Context(), actorID, isAdmin, id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, o)
}

// Cancel cancels a pending order
// @Summary Cancel order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} order.Order
// @Failure 409 {object} utils.ErrorResponse "Order is not pending"
// @Router /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	actorID, isAdmin := actor(r)
	o, err := h.service.Cancel(r.Context(), actorID, isAdmin, id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, o)
}

// Confirm marks a pending order paid
// @Summary Confirm payment
// @Description Records an off-platform payment (PayPal, crypto) and grants the product
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body dto.ConfirmOrderRequest false "Payment reference"
// @Success 200 {object} order.Order
// @Router /api/orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	var req dto.ConfirmOrderRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	o, err := h.service.Confirm(r.Context(), id, req.PaymentReference)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, o)
}

// Refund marks a paid order refunded
// @Summary Refund order
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} order.Order
// @Router /api/orders/{id}/refund [post]
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	o, err := h.service.Refund(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, o)
}

// Stats summarises orders and revenue
// @Summary Order statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} order.Stats
// @Router /api/orders/stats [get]
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, stats)
}

// StripeWebhook applies a signed Stripe event
// @Summary Stripe webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} utils.ErrorResponse "Invalid signature"
// @Router /api/payments/stripe/webhook [post]
func (h *OrderHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		utils.WriteError(w, errors.PayloadTooLarge("Webhook payload too large"))
		return
	}

	if err := h.service.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.logger.WarnWithErr(err, "Stripe webhook rejected")
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, map[string]bool{"received": true})
}
