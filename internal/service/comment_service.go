package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/policy"
	"github.com/YashVG/techprep-sub000/internal/repository"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/sanitize"
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
}

// CommentService creates comments on readable posts.
type CommentService struct {
	comments  commentRepository
	access    postAccess
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs a CommentService.
func NewCommentService(comments commentRepository, posts postReader, members membershipReader, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		comments:  comments,
		access:    postAccess{posts: posts, members: members},
		validator: validate,
		logger:    logger,
	}
}

// Create adds a comment to a post the caller may read.
func (s *CommentService) Create(ctx context.Context, principal models.Principal, req dto.CreateCommentRequest) (*models.Comment, error) {
	if !principal.Authenticated {
		return nil, appErrors.ErrUnauthorized
	}
	req.Content = sanitize.RichText(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}

	if _, err := s.access.load(ctx, principal, req.PostID, policy.CreateComment); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: req.PostID, AuthorID: principal.UserID, Content: req.Content}
	if err := s.comments.Create(ctx, comment); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, errPostNotFound
		}
		return nil, appErrors.Internal(err, "failed to create comment")
	}
	comment.Username = principal.Username
	s.logger.Info("comment created", zap.Int64("comment_id", comment.ID), zap.Int64("post_id", comment.PostID))
	return comment, nil
}
