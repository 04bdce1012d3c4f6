package models

import "time"

// Comment is an immutable reply attached to a post.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Username string `db:"username" json:"username"`
}
