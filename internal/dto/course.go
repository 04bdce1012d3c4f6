package dto

import "github.com/YashVG/techprep-sub000/internal/models"

// CreateCourseRequest is the payload of POST /courses.
type CreateCourseRequest struct {
	Code string  `json:"code" validate:"required,course_code"`
	Name *string `json:"name" validate:"omitempty,max=100"`
}

// CourseResponse wraps a created course.
type CourseResponse struct {
	Course models.Course `json:"course"`
}
