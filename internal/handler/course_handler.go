package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/response"
)

// CourseHandler manages the course registry endpoints.
type CourseHandler struct {
	service *service.CourseService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {array} models.Course
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nonNil(courses))
}

// Create godoc
// @Summary Create course
// @Description Course codes are stored upper-cased, e.g. cpsc221 becomes CPSC221
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} dto.CourseResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.Create(c.Request.Context(), principal(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CourseResponse{Course: *course})
}

// Delete godoc
// @Summary Delete course
// @Description Refused with 409 while any post references the course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} response.OKBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
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
