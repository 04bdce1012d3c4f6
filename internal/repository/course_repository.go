package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/YashVG/techprep-sub000/internal/models"
)

// CourseRepository manages the course code registry.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns every course ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `SELECT id, code, name, created_at FROM courses ORDER BY code ASC`
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `SELECT id, code, name, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindByCode returns a course by its normalised code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `SELECT id, code, name, created_at FROM courses WHERE code = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by code: %w", err)
	}
	return &course, nil
}

// Create inserts a course and fills the generated fields.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO courses (code, name) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, course.Code, course.Name).Scan(&course.ID, &course.CreatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// CountPostsByCode returns how many posts reference the course code.
func (r *CourseRepository) CountPostsByCode(ctx context.Context, code string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts WHERE course = $1`, code); err != nil {
		return 0, fmt.Errorf("count posts for course: %w", err)
	}
	return count, nil
}

// Delete removes a course. The posts.course foreign key rejects the delete if
// a post was attached after the caller's reference check.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
