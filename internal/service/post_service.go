package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/policy"
	"github.com/YashVG/techprep-sub000/internal/repository"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/sanitize"
)

// Tag limits applied when normalizing a post's tags.
const (
	MaxTags      = 10
	MaxTagLength = 30
)

type postRepository interface {
	ListVisible(ctx context.Context, viewerID int64) ([]models.Post, error)
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	DeleteWithComments(ctx context.Context, id int64) error
}

type postGroupReader interface {
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

type commentLister interface {
	ListByPost(ctx context.Context, postID int64) ([]models.Comment, error)
}

// PostService implements post publishing and reading.
type PostService struct {
	posts     postRepository
	groups    postGroupReader
	comments  commentLister
	access    postAccess
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPostService constructs a PostService.
func NewPostService(posts postRepository, groups postGroupReader, comments commentLister, validate *validator.Validate, logger *zap.Logger) *PostService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{
		posts:     posts,
		groups:    groups,
		comments:  comments,
		access:    postAccess{posts: posts, members: groups},
		validator: validate,
		logger:    logger,
	}
}

// List returns every post the caller may read, newest first.
func (s *PostService) List(ctx context.Context, principal models.Principal) ([]models.Post, error) {
	var viewer int64
	if principal.Authenticated {
		viewer = principal.UserID
	}
	posts, err := s.posts.ListVisible(ctx, viewer)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list posts")
	}
	return posts, nil
}

// Get returns one post. Group posts are hidden from non-members.
func (s *PostService) Get(ctx context.Context, principal models.Principal, id int64) (*models.Post, error) {
	return s.access.load(ctx, principal, id, policy.ReadPost)
}

// Comments lists a readable post's comments, oldest first.
func (s *PostService) Comments(ctx context.Context, principal models.Principal, postID int64) ([]models.Comment, error) {
	if _, err := s.access.load(ctx, principal, postID, policy.ReadComment); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list comments")
	}
	return comments, nil
}

// Create validates, sanitizes and persists a post.
func (s *PostService) Create(ctx context.Context, principal models.Principal, req dto.CreatePostRequest) (*models.Post, error) {
	if !principal.Authenticated {
		return nil, appErrors.ErrUnauthorized
	}

	req.Title = sanitize.PlainText(req.Title)
	req.Content = sanitize.RichText(req.Content)
	req.Language = strings.ToLower(strings.TrimSpace(req.Language))
	req.Tags = sanitize.Tags(req.Tags, MaxTags, MaxTagLength)
	if req.Course != nil {
		code := NormalizeCourseCode(*req.Course)
		req.Course = &code
		if code == "" {
			req.Course = nil
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}

	var group *models.Group
	if req.GroupID != nil {
		var err error
		group, err = s.groups.FindByID(ctx, *req.GroupID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Internal(err, "failed to load group")
		}
		member, err := s.groups.IsMember(ctx, group.ID, principal.UserID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check membership")
		}
		if err := policy.Check(principal, policy.CreatePost, policy.Resource{GroupID: req.GroupID, IsMember: member}); err != nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you must be a member of the group to post in it")
		}
	}

	post := &models.Post{
		AuthorID: principal.UserID,
		Title:    req.Title,
		Content:  req.Content,
		Code:     sanitize.CodeLiteral(req.Code),
		Language: models.Language(req.Language),
		Tags:     pq.StringArray(req.Tags),
		Course:   req.Course,
		GroupID:  req.GroupID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseMissing):
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s does not exist", *req.Course))
		case errors.Is(err, repository.ErrMembershipMissing):
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you must be a member of the group to post in it")
		case repository.IsForeignKeyViolation(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "referenced course or group no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to create post")
	}

	post.AuthorUsername = principal.Username
	if group != nil {
		post.GroupName = &group.Name
	}
	s.logger.Info("post created", zap.Int64("post_id", post.ID), zap.Int64("user_id", principal.UserID))
	return post, nil
}

// Delete removes the caller's own post and its comments.
func (s *PostService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if !principal.Authenticated {
		return appErrors.ErrUnauthorized
	}
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errPostNotFound
		}
		return appErrors.Internal(err, "failed to load post")
	}

	if post.AuthorID != principal.UserID {
		// Group posts stay hidden from non-members even on delete.
		res, err := s.access.resource(ctx, principal, post)
		if err != nil {
			return err
		}
		if !policy.Allow(principal, policy.ReadPost, res) {
			return errPostNotFound
		}
	}
	if err := policy.Check(principal, policy.DeletePost, policy.Resource{OwnerID: post.AuthorID}); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only delete your own posts")
	}

	if err := s.posts.DeleteWithComments(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errPostNotFound
		}
		return appErrors.Internal(err, "failed to delete post")
	}
	s.logger.Info("post deleted", zap.Int64("post_id", id), zap.Int64("user_id", principal.UserID))
	return nil
}
