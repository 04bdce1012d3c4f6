package dto

import "github.com/YashVG/techprep-sub000/internal/models"

// CreateGroupRequest is the payload of POST /groups.
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateGroupRequest is the payload of PUT /groups/{id}. Nil fields are left unchanged.
type UpdateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// AddMemberRequest is the payload of POST /groups/{id}/members. A nil
// UserID means the caller joins.
type AddMemberRequest struct {
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

// GroupResponse wraps a group view.
type GroupResponse struct {
	Group models.Group `json:"group"`
}

// GroupDetailResponse wraps a group together with its members.
type GroupDetailResponse struct {
	Group models.GroupDetail `json:"group"`
}

// GroupPostsResponse is returned by GET /groups/{id}/posts.
type GroupPostsResponse struct {
	GroupID   int64         `json:"group_id"`
	GroupName string        `json:"group_name"`
	Posts     []models.Post `json:"posts"`
}
