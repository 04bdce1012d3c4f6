package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/policy"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
)

type postReader interface {
	FindByID(ctx context.Context, id int64) (*models.Post, error)
}

type membershipReader interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

var errPostNotFound = appErrors.Clone(appErrors.ErrNotFound, "post not found")

// postAccess loads a post and applies a read-derived policy action. Group
// posts the caller cannot read are reported as missing.
type postAccess struct {
	posts   postReader
	members membershipReader
}

func (a postAccess) load(ctx context.Context, principal models.Principal, id int64, action policy.Action) (*models.Post, error) {
	post, err := a.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errPostNotFound
		}
		return nil, appErrors.Internal(err, "failed to load post")
	}

	res, err := a.resource(ctx, principal, post)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(principal, action, res); err != nil {
		if errors.Is(err, appErrors.ErrForbidden) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (a postAccess) resource(ctx context.Context, principal models.Principal, post *models.Post) (policy.Resource, error) {
	res := policy.Resource{OwnerID: post.AuthorID, GroupID: post.GroupID}
	if post.IsPublic() || !principal.Authenticated {
		return res, nil
	}
	member, err := a.members.IsMember(ctx, *post.GroupID, principal.UserID)
	if err != nil {
		return res, appErrors.Internal(err, "failed to check membership")
	}
	res.IsMember = member
	return res, nil
}
