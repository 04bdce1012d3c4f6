package dto

// CreatePostRequest is the payload of POST /posts. Lengths are checked after
// sanitization, except code which is checked on the raw text. PostgreSQL text
// cannot hold NUL, so it is rejected in every stored string.
type CreatePostRequest struct {
	Title    string   `json:"title" validate:"required,max=200,nonul"`
	Content  string   `json:"content" validate:"max=10000,nonul"`
	Code     string   `json:"code" validate:"max=100000,nonul"`
	Language string   `json:"language" validate:"required,language"`
	Tags     []string `json:"tags" validate:"max=10,dive,nonul"`
	Course   *string  `json:"course" validate:"omitempty,course_code"`
	GroupID  *int64   `json:"group_id" validate:"omitempty,gt=0"`
}

// CreateCommentRequest is the payload of POST /comments.
type CreateCommentRequest struct {
	PostID  int64  `json:"post_id" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=5000,nonul"`
}
