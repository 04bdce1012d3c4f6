package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/policy"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
)

type userPostLister interface {
	ListByAuthor(ctx context.Context, authorID int64) ([]models.Post, error)
}

type userGroupLister interface {
	ListByMember(ctx context.Context, userID int64) ([]models.Group, error)
}

// UserService serves public user views and per-user listings.
type UserService struct {
	users  userFinder
	posts  userPostLister
	groups userGroupLister
}

// NewUserService constructs a UserService.
func NewUserService(users userFinder, posts userPostLister, groups userGroupLister) *UserService {
	return &UserService{users: users, posts: posts, groups: groups}
}

// Get returns a user. The email address is only included for the user themselves.
func (s *UserService) Get(ctx context.Context, principal models.Principal, id int64) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.Authenticated || principal.UserID != user.ID {
		public := user.Public()
		return &public, nil
	}
	return user, nil
}

// Posts lists every post the caller authored, including group posts.
func (s *UserService) Posts(ctx context.Context, principal models.Principal, id int64) ([]models.Post, error) {
	if err := policy.Check(principal, policy.ReadUserPosts, policy.Resource{OwnerID: id}); err != nil {
		if errors.Is(err, appErrors.ErrForbidden) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only list your own posts")
		}
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByAuthor(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list user posts")
	}
	return posts, nil
}

// Groups lists the groups a user belongs to.
func (s *UserService) Groups(ctx context.Context, id int64) ([]models.Group, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	groups, err := s.groups.ListByMember(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list user groups")
	}
	return groups, nil
}

func (s *UserService) find(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}
