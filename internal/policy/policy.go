// Package policy is the single authorization decision point. Every rule is a
// pure function of the principal, the action and facts about the target that
// the caller has already loaded.
package policy

import (
	"github.com/YashVG/techprep-sub000/internal/models"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
)

// Action names an operation subject to authorization.
type Action string

const (
	ReadPost       Action = "read_post"
	CreatePost     Action = "create_post"
	DeletePost     Action = "delete_post"
	ReadComment    Action = "read_comment"
	CreateComment  Action = "create_comment"
	CreateCourse   Action = "create_course"
	DeleteCourse   Action = "delete_course"
	CreateGroup    Action = "create_group"
	UpdateGroup    Action = "update_group"
	DeleteGroup    Action = "delete_group"
	AddMember      Action = "add_member"
	RemoveMember   Action = "remove_member"
	ListGroups     Action = "list_groups"
	ListGroupPosts Action = "list_group_posts"
	ReadUserPosts  Action = "read_user_posts"
)

// Resource carries the facts about the target entity a decision depends on.
type Resource struct {
	// OwnerID is the post author, group creator or user the resource belongs to.
	OwnerID int64
	// GroupID is set for group-scoped posts and comments on them. For post
	// creation it is the requested group.
	GroupID *int64
	// IsMember is true when the principal belongs to the relevant group.
	IsMember bool
	// TargetUserID is the member being added or removed.
	TargetUserID int64
	// Referenced is true when posts still point at a course.
	Referenced bool
}

type rule struct {
	needsAuth bool
	check     func(p models.Principal, r Resource) bool
	// denied is the error returned when check fails. Defaults to forbidden.
	denied *appErrors.Error
}

var rules = map[Action]rule{
	ReadPost:    {check: canRead},
	ReadComment: {check: canRead},
	CreatePost: {needsAuth: true, check: func(_ models.Principal, r Resource) bool {
		return r.GroupID == nil || r.IsMember
	}},
	DeletePost:    {needsAuth: true, check: isOwner},
	CreateComment: {needsAuth: true, check: canRead},
	CreateCourse:  {needsAuth: true},
	DeleteCourse: {
		needsAuth: true,
		check:     func(_ models.Principal, r Resource) bool { return !r.Referenced },
		denied:    appErrors.Clone(appErrors.ErrConflict, "course is referenced by existing posts"),
	},
	CreateGroup: {needsAuth: true},
	UpdateGroup: {needsAuth: true, check: isOwner},
	DeleteGroup: {needsAuth: true, check: isOwner},
	AddMember: {needsAuth: true, check: func(p models.Principal, r Resource) bool {
		return r.TargetUserID == p.UserID || r.OwnerID == p.UserID
	}},
	RemoveMember: {needsAuth: true, check: func(p models.Principal, r Resource) bool {
		if r.TargetUserID == r.OwnerID {
			return false
		}
		return r.TargetUserID == p.UserID || r.OwnerID == p.UserID
	}},
	ListGroups:     {},
	ListGroupPosts: {needsAuth: true, check: func(_ models.Principal, r Resource) bool { return r.IsMember }},
	ReadUserPosts:  {needsAuth: true, check: isOwner},
}

func canRead(_ models.Principal, r Resource) bool {
	return r.GroupID == nil || r.IsMember
}

func isOwner(p models.Principal, r Resource) bool {
	return p.UserID == r.OwnerID
}

// Allow reports whether p may perform a on r. Unknown actions are denied.
func Allow(p models.Principal, a Action, r Resource) bool {
	return Check(p, a, r) == nil
}

// Check is Allow with the failure kind: auth when a principal is required but
// missing, forbidden (or the rule's own kind) when the rule rejects.
func Check(p models.Principal, a Action, r Resource) error {
	rl, ok := rules[a]
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "action not permitted")
	}
	if rl.needsAuth && !p.Authenticated {
		return appErrors.ErrUnauthorized
	}
	if rl.check == nil || rl.check(p, r) {
		return nil
	}
	if rl.denied != nil {
		return rl.denied
	}
	return appErrors.ErrForbidden
}
