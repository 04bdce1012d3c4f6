package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/response"
)

// UserHandler handles user lookup endpoints.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// Get godoc
// @Summary Get user
// @Description The email address is only returned to the user themselves
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UserResponse{User: *user})
}

// Posts godoc
// @Summary List a user's posts
// @Description Only available to the user themselves; includes group-scoped posts
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} models.Post
// @Failure 403 {object} response.ErrorBody
// @Router /users/{id}/posts [get]
func (h *UserHandler) Posts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	posts, err := h.service.Posts(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nonNil(posts))
}

// Groups godoc
// @Summary List a user's groups
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Group
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id}/groups [get]
func (h *UserHandler) Groups(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	groups, err := h.service.Groups(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nonNil(groups))
}
