package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/response"
)

// PostHandler exposes post and comment endpoints.
type PostHandler struct {
	posts    *service.PostService
	comments *service.CommentService
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(posts *service.PostService, comments *service.CommentService) *PostHandler {
	return &PostHandler{posts: posts, comments: comments}
}

// List godoc
// @Summary List posts
// @Description Newest first. Anonymous callers only see public posts.
// @Tags Posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), principal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nonNil(posts))
}

// Get godoc
// @Summary Get post
// @Tags Posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} response.ErrorBody
// @Router /posts/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post)
}

// Create godoc
// @Summary Create post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreatePostRequest true "Post payload"
// @Success 201 {object} models.Post
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Delete godoc
// @Summary Delete post
// @Description Removes the post and its comments. Only the author may delete.
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} response.OKBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), principal(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c)
}

// Comments godoc
// @Summary List comments of a post
// @Tags Comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} response.ErrorBody
// @Router /posts/{id}/comments [get]
func (h *PostHandler) Comments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.posts.Comments(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nonNil(comments))
}

// CreateComment godoc
// @Summary Comment on a post
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateCommentRequest true "Comment payload"
// @Success 201 {object} models.Comment
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /comments [post]
func (h *PostHandler) CreateComment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}
