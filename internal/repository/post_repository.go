package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/YashVG/techprep-sub000/internal/models"
)

const postSelect = `
SELECT p.id, p.author_id, p.title, p.content, p.code, p.language, p.tags, p.course, p.group_id,
       p.created_at, p.updated_at,
       u.username AS author_username, g.name AS group_name
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN groups g ON g.id = p.group_id`

const postOrder = ` ORDER BY p.created_at DESC, p.id DESC`

// PostRepository persists posts and the comments that hang off them.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// ListVisible returns public posts plus posts of groups viewerID belongs to,
// newest first. A viewerID of 0 yields public posts only.
func (r *PostRepository) ListVisible(ctx context.Context, viewerID int64) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := postSelect + `
WHERE p.group_id IS NULL
   OR EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = p.group_id AND gm.user_id = $1)` + postOrder
	posts := []models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, viewerID); err != nil {
		return nil, fmt.Errorf("list visible posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor returns every post written by authorID, newest first.
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := postSelect + ` WHERE p.author_id = $1` + postOrder
	posts := []models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, authorID); err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return posts, nil
}

// ListByGroup returns the posts scoped to groupID, newest first.
func (r *PostRepository) ListByGroup(ctx context.Context, groupID int64) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := postSelect + ` WHERE p.group_id = $1` + postOrder
	posts := []models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, groupID); err != nil {
		return nil, fmt.Errorf("list posts by group: %w", err)
	}
	return posts, nil
}

// FindByID returns a single post.
func (r *PostRepository) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := postSelect + ` WHERE p.id = $1`
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// Create inserts a post. Inside one transaction it re-checks that the course
// exists and that the author is still a member of the target group, locking
// both rows so neither can disappear before commit.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create post: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if post.Course != nil {
		var found int
		err = tx.GetContext(ctx, &found, `SELECT 1 FROM courses WHERE code = $1 FOR SHARE`, *post.Course)
		if err == sql.ErrNoRows {
			return ErrCourseMissing
		}
		if err != nil {
			return fmt.Errorf("lock course: %w", err)
		}
	}

	if post.GroupID != nil {
		var found int
		err = tx.GetContext(ctx, &found, `SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 FOR SHARE`, *post.GroupID, post.AuthorID)
		if err == sql.ErrNoRows {
			return ErrMembershipMissing
		}
		if err != nil {
			return fmt.Errorf("lock membership: %w", err)
		}
	}

	const insert = `
INSERT INTO posts (author_id, title, content, code, language, tags, course, group_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`
	if err = tx.QueryRowxContext(ctx, insert,
		post.AuthorID, post.Title, post.Content, post.Code, post.Language, post.Tags, post.Course, post.GroupID,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create post: %w", err)
	}
	return nil
}

// DeleteWithComments removes a post and exactly its comments atomically.
func (r *PostRepository) DeleteWithComments(ctx context.Context, id int64) (err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete post: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete post comments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete post: %w", err)
	}
	return nil
}
