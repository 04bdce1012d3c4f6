package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/response"
)

// GroupHandler exposes study group endpoints.
type GroupHandler struct {
	service *service.GroupService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{service: svc}
}

// List godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Success 200 {array} models.Group
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nonNil(groups))
}

// Get godoc
// @Summary Get group with members
// @Tags Groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} dto.GroupDetailResponse
// @Failure 404 {object} response.ErrorBody
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	group, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GroupDetailResponse{Group: *group})
}

// Create godoc
// @Summary Create group
// @Description The creator becomes the first member
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateGroupRequest true "Group payload"
// @Success 201 {object} dto.GroupResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.service.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.GroupResponse{Group: *group})
}

// Update godoc
// @Summary Update group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param payload body dto.UpdateGroupRequest true "Group payload"
// @Success 200 {object} dto.GroupResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /groups/{id} [put]
func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.service.Update(c.Request.Context(), principal(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GroupResponse{Group: *group})
}

// Delete godoc
// @Summary Delete group
// @Description Removes memberships and group-scoped posts
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} response.OKBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), principal(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c)
}

// AddMember godoc
// @Summary Join group or add a member
// @Description Without user_id the caller joins. Only the creator may add someone else.
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param payload body dto.AddMemberRequest false "Member payload"
// @Success 200 {object} dto.GroupDetailResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.service.AddMember(c.Request.Context(), principal(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GroupDetailResponse{Group: *group})
}

// RemoveMember godoc
// @Summary Leave group or remove a member
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param userID path int true "User ID"
// @Success 200 {object} dto.GroupDetailResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /groups/{id}/members/{userID} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	group, err := h.service.RemoveMember(c.Request.Context(), principal(c), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GroupDetailResponse{Group: *group})
}

// Posts godoc
// @Summary List group posts
// @Description Members only
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} dto.GroupPostsResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /groups/{id}/posts [get]
func (h *GroupHandler) Posts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.Posts(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	res.Posts = nonNil(res.Posts)
	response.JSON(c, http.StatusOK, res)
}
