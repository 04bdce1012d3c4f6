package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/YashVG/techprep-sub000/internal/models"
)

// CommentRepository persists comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByPost returns the comments of a post, oldest first with id as tie-breaker.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `
SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, u.username
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.post_id = $1
ORDER BY c.created_at ASC, c.id ASC`
	comments := []models.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Create inserts a comment and fills the generated fields. A post deleted
// concurrently surfaces as a foreign key violation.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO comments (post_id, author_id, content) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, comment.PostID, comment.AuthorID, comment.Content).
		Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}
