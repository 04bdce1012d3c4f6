package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register godoc
// @Summary Register account
// @Description Create an account with an institutional email and return a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Register(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Logout
// @Description Acknowledge logout. Tokens are stateless; the client discards its token.
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.OKBody
// @Failure 401 {object} response.ErrorBody
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), principal(c))
	response.OK(c)
}

// Profile godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} response.ErrorBody
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), principal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UserResponse{User: *user})
}

// UpdateProfile godoc
// @Summary Update current user
// @Description Change the email address of the current user
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), principal(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UserResponse{User: *user})
}

// ChangePassword godoc
// @Summary Change password
// @Description Change password for current user after re-verifying the current one
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ChangePasswordRequest true "Password payload"
// @Success 200 {object} response.OKBody
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), principal(c), req, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c)
}
