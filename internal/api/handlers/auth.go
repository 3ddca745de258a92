package handlers

import (
	"net/http"
	"time"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/api/middleware"
	"github.com/spartanofurioso/platform/internal/auth"
	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService user.Service
	config      *config.Config
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService user.Service,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      log,
		validator:   val,
	}
}

// Login handles customer login
// @Summary User login
// @Description Authenticate user with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"ip": middleware.ClientIP(r),
		}).Warn("Authentication failed")
		utils.WriteErr(w, err)
		return
	}

	h.issueTokens(w, u, h.config.Auth.AccessTokenExpiry, http.StatusOK)
}

// AdminLogin handles administrator login
// @Summary Admin login
// @Description Authenticate an administrator; tokens use the admin expiry
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Failure 403 {object} utils.ErrorResponse "Not an administrator"
// @Router /api/auth/admin/login [post]
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.AuthenticateAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"ip": middleware.ClientIP(r),
		}).Warn("Admin authentication failed")
		utils.WriteErr(w, err)
		return
	}

	h.issueTokens(w, u, h.config.Auth.AdminTokenExpiry, http.StatusOK)
}

// Register handles user registration
// @Summary User registration
// @Description Register a new customer account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User successfully registered"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Email already registered"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	h.issueTokens(w, u, h.config.Auth.AccessTokenExpiry, http.StatusCreated)
}

// RefreshToken exchanges a refresh token for a new pair
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token; the refreshToken cookie is used when absent"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		req.RefreshToken = cookie.Value
	}
	if req.RefreshToken == "" && !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	claims, err := auth.ParseRefreshToken(req.RefreshToken, h.config.Auth.JWTSecret)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid or expired refresh token"))
		return
	}

	u, err := h.activeUser(r, claims.UserID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	ttl := h.config.Auth.AccessTokenExpiry
	if u.IsAdmin() {
		ttl = h.config.Auth.AdminTokenExpiry
	}
	h.issueTokens(w, u, ttl, http.StatusOK)
}

// VerifyToken reports whether a token still belongs to an active account
// @Summary Verify token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyTokenRequest false "Token; the Authorization header is used when absent"
// @Success 200 {object} dto.VerifyTokenResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/auth/verify-token [post]
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		var req dto.VerifyTokenRequest
		if !decodeAndValidate(w, r, h.validator, &req) {
			return
		}
		token = req.Token
	}

	claims, err := auth.ParseAccessToken(token, h.config.Auth.JWTSecret)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
		return
	}

	u, err := h.activeUser(r, claims.UserID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.VerifyTokenResponse{Valid: true, User: dto.NewUserDTO(u)})
}

// Me returns the current user
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserDTO
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := actor(r)
	u, err := h.activeUser(r, userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// UpdateProfile applies self-service profile changes
// @Summary Update profile
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.UserDTO
// @Failure 409 {object} utils.ErrorResponse "Email already in use"
// @Router /api/auth/update-profile [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	userID, _ := actor(r)
	u, err := h.userService.UpdateProfile(r.Context(), userID, req.ToDomain())
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// ChangePassword replaces the caller's password
// @Summary Change password
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Passwords"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse "Current password is wrong"
// @Router /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	userID, _ := actor(r)
	if err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Password changed", nil)
}

// ForgotPassword mails a reset link when the address is registered
// @Summary Request password reset
// @Description Always succeeds so callers cannot enumerate accounts
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Email"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.userService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.ErrorWithErr(err, "Password reset request failed")
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "If the address is registered, a reset link has been sent", nil)
}

// ResetPassword sets a new password from a reset token
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "Invalid or expired token"
// @Router /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Password has been reset", nil)
}

// Logout clears the auth cookies
// @Summary Logout
// @Tags Auth
// @Success 200 {object} utils.SuccessResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for name, path := range map[string]string{middleware.AccessTokenCookie: "/", "refreshToken": "/api/auth"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			HttpOnly: true,
			Secure:   h.config.Server.IsProduction(),
			SameSite: http.SameSiteStrictMode,
			Path:     path,
			MaxAge:   -1,
		})
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Logged out", nil)
}

// activeUser loads a user and rejects deleted or deactivated accounts
func (h *AuthHandler) activeUser(r *http.Request, id int64) (*user.User, error) {
	u, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Account no longer exists")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, errors.Unauthorized("Account is disabled")
	}
	return u, nil
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, u *user.User, accessTTL time.Duration, status int) {
	tokens, err := auth.MintTokens(
		auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role},
		h.config.Auth.JWTSecret,
		accessTTL,
		h.config.Auth.RefreshTokenExpiry,
	)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		HttpOnly: true,
		Secure:   h.config.Server.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		HttpOnly: true,
		Secure:   h.config.Server.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		Path:     "/api/auth",
		MaxAge:   int(h.config.Auth.RefreshTokenExpiry.Seconds()),
	})

	h.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"role":    u.Role,
	}).Info("Tokens issued")

	utils.WriteSuccess(w, status, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt.Unix(),
		User:         dto.NewUserDTO(u),
	})
}
