package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/policy"
	"github.com/YashVG/techprep-sub000/internal/repository"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/sanitize"
)

type groupRepository interface {
	List(ctx context.Context) ([]models.Group, error)
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	ExistsByCreatorAndName(ctx context.Context, creatorID int64, name string, excludeID int64) (bool, error)
	CreateWithCreator(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	DeleteCascade(ctx context.Context, id int64) error
	AddMember(ctx context.Context, groupID, userID int64, joinedAt time.Time) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
}

type userFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type groupPostLister interface {
	ListByGroup(ctx context.Context, groupID int64) ([]models.Post, error)
}

var errGroupNotFound = appErrors.Clone(appErrors.ErrNotFound, "group not found")

// GroupService manages study groups and their memberships.
type GroupService struct {
	groups    groupRepository
	users     userFinder
	posts     groupPostLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGroupService constructs a GroupService.
func NewGroupService(groups groupRepository, users userFinder, posts groupPostLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{
		groups:    groups,
		users:     users,
		posts:     posts,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns all groups without their member lists.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if hit, _ := s.cache.Get(ctx, cacheKeyGroups, &groups); hit {
		return groups, nil
	}
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list groups")
	}
	_ = s.cache.Set(ctx, cacheKeyGroups, groups, 0)
	return groups, nil
}

// Get returns a group with its members.
func (s *GroupService) Get(ctx context.Context, id int64) (*models.GroupDetail, error) {
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, group)
}

// Create makes a group and enrols its creator in the same transaction.
func (s *GroupService) Create(ctx context.Context, principal models.Principal, req dto.CreateGroupRequest) (*models.Group, error) {
	if err := policy.Check(principal, policy.CreateGroup, policy.Resource{}); err != nil {
		return nil, err
	}
	req.Name = sanitize.PlainText(req.Name)
	req.Description = sanitize.RichText(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}
	if err := s.ensureUniqueName(ctx, principal.UserID, req.Name, 0); err != nil {
		return nil, err
	}

	group := &models.Group{Name: req.Name, Description: req.Description, CreatorID: principal.UserID}
	if err := s.groups.CreateWithCreator(ctx, group); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicateGroupName(req.Name)
		}
		return nil, appErrors.Internal(err, "failed to create group")
	}
	group.CreatorUsername = principal.Username
	group.MemberCount = 1
	s.cache.Invalidate(ctx, cacheKeyGroups)
	s.logger.Info("group created", zap.Int64("group_id", group.ID), zap.Int64("user_id", principal.UserID))
	return group, nil
}

// Update changes the name and/or description. Only the creator may do so.
func (s *GroupService) Update(ctx context.Context, principal models.Principal, id int64, req dto.UpdateGroupRequest) (*models.Group, error) {
	if !principal.Authenticated {
		return nil, appErrors.ErrUnauthorized
	}
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(principal, policy.UpdateGroup, policy.Resource{OwnerID: group.CreatorID}); err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the group creator can modify the group")
	}

	if req.Name != nil {
		name := sanitize.PlainText(*req.Name)
		req.Name = &name
	}
	if req.Description != nil {
		description := sanitize.RichText(*req.Description)
		req.Description = &description
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}

	if req.Name != nil && *req.Name != group.Name {
		if err := s.ensureUniqueName(ctx, group.CreatorID, *req.Name, group.ID); err != nil {
			return nil, err
		}
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	group.UpdatedAt = s.now().UTC()

	if err := s.groups.Update(ctx, group); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, errGroupNotFound
		case repository.IsUniqueViolation(err):
			return nil, duplicateGroupName(group.Name)
		}
		return nil, appErrors.Internal(err, "failed to update group")
	}
	s.cache.Invalidate(ctx, cacheKeyGroups)
	return group, nil
}

// Delete removes the group with its memberships, posts and their comments.
func (s *GroupService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if !principal.Authenticated {
		return appErrors.ErrUnauthorized
	}
	group, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Check(principal, policy.DeleteGroup, policy.Resource{OwnerID: group.CreatorID}); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "only the group creator can delete the group")
	}
	if err := s.groups.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errGroupNotFound
		}
		return appErrors.Internal(err, "failed to delete group")
	}
	s.cache.Invalidate(ctx, cacheKeyGroups)
	s.logger.Info("group deleted", zap.Int64("group_id", id), zap.Int64("user_id", principal.UserID))
	return nil
}

// AddMember enrols the caller, or another user when the caller is the
// creator. Adding an existing member is a no-op.
func (s *GroupService) AddMember(ctx context.Context, principal models.Principal, groupID int64, req dto.AddMemberRequest) (*models.GroupDetail, error) {
	if !principal.Authenticated {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}
	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	target := principal.UserID
	if req.UserID != nil {
		target = *req.UserID
	}
	if err := policy.Check(principal, policy.AddMember, policy.Resource{OwnerID: group.CreatorID, TargetUserID: target}); err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the group creator can add other members")
	}
	if target != principal.UserID {
		if _, err := s.users.FindByID(ctx, target); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return nil, appErrors.Internal(err, "failed to load user")
		}
	}

	if err := s.groups.AddMember(ctx, groupID, target, s.now().UTC()); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, errGroupNotFound
		}
		return nil, appErrors.Internal(err, "failed to add member")
	}
	s.cache.Invalidate(ctx, cacheKeyGroups)
	return s.detail(ctx, group)
}

// RemoveMember removes a member. Members may leave; the creator may remove
// anyone but themselves.
func (s *GroupService) RemoveMember(ctx context.Context, principal models.Principal, groupID, userID int64) (*models.GroupDetail, error) {
	if !principal.Authenticated {
		return nil, appErrors.ErrUnauthorized
	}
	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if userID == group.CreatorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "the group creator cannot leave; delete the group instead")
	}
	if err := policy.Check(principal, policy.RemoveMember, policy.Resource{OwnerID: group.CreatorID, TargetUserID: userID}); err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the group creator can remove other members")
	}

	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user is not a member of this group")
		}
		return nil, appErrors.Internal(err, "failed to remove member")
	}
	s.cache.Invalidate(ctx, cacheKeyGroups)
	return s.detail(ctx, group)
}

// Posts lists a group's posts for its members.
func (s *GroupService) Posts(ctx context.Context, principal models.Principal, groupID int64) (*dto.GroupPostsResponse, error) {
	if !principal.Authenticated {
		return nil, appErrors.ErrUnauthorized
	}
	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	member, err := s.groups.IsMember(ctx, groupID, principal.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check membership")
	}
	if err := policy.Check(principal, policy.ListGroupPosts, policy.Resource{GroupID: &group.ID, IsMember: member}); err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you must be a member of this group to view its posts")
	}

	posts, err := s.posts.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list group posts")
	}
	return &dto.GroupPostsResponse{GroupID: group.ID, GroupName: group.Name, Posts: posts}, nil
}

func (s *GroupService) find(ctx context.Context, id int64) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errGroupNotFound
		}
		return nil, appErrors.Internal(err, "failed to load group")
	}
	return group, nil
}

func (s *GroupService) detail(ctx context.Context, group *models.Group) (*models.GroupDetail, error) {
	members, err := s.groups.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list members")
	}
	group.MemberCount = len(members)
	return &models.GroupDetail{Group: *group, Members: members}, nil
}

func (s *GroupService) ensureUniqueName(ctx context.Context, creatorID int64, name string, excludeID int64) error {
	exists, err := s.groups.ExistsByCreatorAndName(ctx, creatorID, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check group name")
	}
	if exists {
		return duplicateGroupName(name)
	}
	return nil
}

func duplicateGroupName(name string) error {
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("you already have a group named %q", name))
}
