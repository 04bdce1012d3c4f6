package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/policy"
	"github.com/YashVG/techprep-sub000/internal/repository"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/sanitize"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	CountPostsByCode(ctx context.Context, code string) (int, error)
	Delete(ctx context.Context, id int64) error
}

// CourseService manages the course registry.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// NormalizeCourseCode strips markup and whitespace and upper-cases the code.
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(sanitize.PlainText(code), " ", ""))
}

// List returns every course ordered by code.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if hit, _ := s.cache.Get(ctx, cacheKeyCourses, &courses); hit {
		return courses, nil
	}
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	_ = s.cache.Set(ctx, cacheKeyCourses, courses, 0)
	return courses, nil
}

// Create registers a course. Codes are unique after normalization.
func (s *CourseService) Create(ctx context.Context, principal models.Principal, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := policy.Check(principal, policy.CreateCourse, policy.Resource{}); err != nil {
		return nil, err
	}

	req.Code = NormalizeCourseCode(req.Code)
	if req.Name != nil {
		name := sanitize.PlainText(*req.Name)
		req.Name = &name
		if name == "" {
			req.Name = nil
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already exists", req.Code))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check course")
	}

	course := &models.Course{Code: req.Code, Name: req.Name}
	if err := s.repo.Create(ctx, course); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already exists", req.Code))
		}
		return nil, appErrors.Internal(err, "failed to create course")
	}
	s.cache.Invalidate(ctx, cacheKeyCourses)
	s.logger.Info("course created", zap.String("code", course.Code), zap.Int64("user_id", principal.UserID))
	return course, nil
}

// Delete removes a course that no post references.
func (s *CourseService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if !principal.Authenticated {
		return appErrors.ErrUnauthorized
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Internal(err, "failed to load course")
	}

	refs, err := s.repo.CountPostsByCode(ctx, course.Code)
	if err != nil {
		return appErrors.Internal(err, "failed to count course references")
	}
	if err := policy.Check(principal, policy.DeleteCourse, policy.Resource{Referenced: refs > 0}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		case repository.IsForeignKeyViolation(err):
			return appErrors.Clone(appErrors.ErrConflict, "course is referenced by existing posts")
		}
		return appErrors.Internal(err, "failed to delete course")
	}
	s.cache.Invalidate(ctx, cacheKeyCourses)
	s.logger.Info("course deleted", zap.String("code", course.Code), zap.Int64("user_id", principal.UserID))
	return nil
}
