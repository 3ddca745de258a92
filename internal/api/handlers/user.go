package handlers

import (
	"net/http"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// UserHandler handles admin account management
type UserHandler struct {
	service   user.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(service user.Service, log *logger.Logger, val *validator.Validator) *UserHandler {
	return &UserHandler{service: service, logger: log, validator: val}
}

// List lists accounts
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Email or name fragment"
// @Param role query string false "Role filter" Enums(user, admin)
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Router /api/admin/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)
	role := r.URL.Query().Get("role")
	if role != "" && !user.ValidRole(role) {
		utils.WriteError(w, errors.BadRequest("Invalid role"))
		return
	}

	users, total, err := h.service.List(r.Context(), user.Filter{
		Search: r.URL.Query().Get("search"),
		Role:   role,
		Limit:  p.PageSize,
		Offset: p.Offset,
	})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	writePage(w, dto.NewUserDTOs(users), p, total)
}

// Get returns an account
// @Summary Get user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserDTO
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/admin/users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	u, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// Create creates an account with an explicit role
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "Account"
// @Success 201 {object} dto.UserDTO
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/admin/users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	if req.Role == "" {
		req.Role = user.RoleUser
	}

	u, err := h.service.AdminCreate(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, dto.NewUserDTO(u))
}

// Update changes an account
// @Summary Update user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "Changes"
// @Success 200 {object} dto.UserDTO
// @Failure 403 {object} utils.ErrorResponse "Admins cannot demote or deactivate themselves"
// @Router /api/admin/users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var req dto.UpdateUserRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	actorID, _ := actor(r)
	u, err := h.service.AdminUpdate(r.Context(), actorID, id, req.ToDomain())
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// Delete removes an account
// @Summary Delete user
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse "Admins cannot delete themselves"
// @Router /api/admin/users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	actorID, _ := actor(r)
	if err := h.service.Delete(r.Context(), actorID, id); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "User deleted", nil)
}
