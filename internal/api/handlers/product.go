package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// ProductHandler handles catalog requests
type ProductHandler struct {
	service   product.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewProductHandler creates a new product handler
func NewProductHandler(service product.Service, log *logger.Logger, val *validator.Validator) *ProductHandler {
	return &ProductHandler{service: service, logger: log, validator: val}
}

func typeFilter(r *http.Request) (product.Type, error) {
	t := product.Type(r.URL.Query().Get("type"))
	if t != "" && !t.IsValid() {
		return "", errors.BadRequest("Invalid product type")
	}
	return t, nil
}

// List lists active products
// @Summary List products
// @Tags Products
// @Produce json
// @Param type query string false "Product type" Enums(bot, course, subscription, indicator)
// @Success 200 {array} product.Product
// @Router /api/products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	t, err := typeFilter(r)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	products, err := h.service.List(r.Context(), product.Filter{Type: t, ActiveOnly: true})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, products)
}

// AdminList lists every product, including inactive ones
// @Summary List all products
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param type query string false "Product type"
// @Success 200 {array} product.Product
// @Router /api/admin/products [get]
func (h *ProductHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	t, err := typeFilter(r)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	products, err := h.service.List(r.Context(), product.Filter{Type: t})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, products)
}

// Get returns an active product
// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} product.Product
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/products/{id} [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if !p.IsActive {
		utils.WriteError(w, errors.NotFound("Product"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, p)
}

// GetBySlug returns an active product by slug
// @Summary Get product by slug
// @Tags Products
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} product.Product
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/products/slug/{slug} [get]
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if !p.IsActive {
		utils.WriteError(w, errors.NotFound("Product"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, p)
}

// Create adds a product
// @Summary Create product
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ProductRequest true "Product"
// @Success 201 {object} product.Product
// @Failure 409 {object} utils.ErrorResponse "Slug taken"
// @Router /api/admin/products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	p := req.ToDomain()
	if err := h.service.Create(r.Context(), p); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, p)
}

// Update replaces a product
// @Summary Update product
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body dto.ProductRequest true "Product"
// @Success 200 {object} product.Product
// @Router /api/admin/products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.ProductRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	p := req.ToDomain()
	p.ID = id
	if err := h.service.Update(r.Context(), p); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, p)
}

// Delete removes a product
// @Summary Delete product
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse "Product has orders"
// @Router /api/admin/products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Product deleted", nil)
}
