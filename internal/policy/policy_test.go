package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YashVG/techprep-sub000/internal/models"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
)

func TestCheck(t *testing.T) {
	alice := models.Principal{UserID: 1, Username: "alice", Authenticated: true}
	bob := models.Principal{UserID: 2, Username: "bob", Authenticated: true}
	anon := models.Anonymous
	group := int64(10)

	cases := []struct {
		name      string
		principal models.Principal
		action    Action
		resource  Resource
		want      error
	}{
		{"public post readable anonymously", anon, ReadPost, Resource{OwnerID: 1}, nil},
		{"group post hidden from non-member", bob, ReadPost, Resource{OwnerID: 1, GroupID: &group}, appErrors.ErrForbidden},
		{"group post hidden from anonymous", anon, ReadPost, Resource{OwnerID: 1, GroupID: &group}, appErrors.ErrForbidden},
		{"group post visible to member", bob, ReadPost, Resource{OwnerID: 1, GroupID: &group, IsMember: true}, nil},
		{"comment follows post visibility", bob, ReadComment, Resource{GroupID: &group}, appErrors.ErrForbidden},
		{"create post requires auth", anon, CreatePost, Resource{}, appErrors.ErrUnauthorized},
		{"create public post", alice, CreatePost, Resource{}, nil},
		{"create group post needs membership", bob, CreatePost, Resource{GroupID: &group}, appErrors.ErrForbidden},
		{"create group post as member", alice, CreatePost, Resource{GroupID: &group, IsMember: true}, nil},
		{"delete own post", alice, DeletePost, Resource{OwnerID: 1}, nil},
		{"delete someone else's post", bob, DeletePost, Resource{OwnerID: 1}, appErrors.ErrForbidden},
		{"delete post anonymously", anon, DeletePost, Resource{OwnerID: 1}, appErrors.ErrUnauthorized},
		{"comment on public post", bob, CreateComment, Resource{OwnerID: 1}, nil},
		{"comment on unreadable post", bob, CreateComment, Resource{GroupID: &group}, appErrors.ErrForbidden},
		{"comment anonymously", anon, CreateComment, Resource{}, appErrors.ErrUnauthorized},
		{"create course", bob, CreateCourse, Resource{}, nil},
		{"create course anonymously", anon, CreateCourse, Resource{}, appErrors.ErrUnauthorized},
		{"delete unreferenced course", bob, DeleteCourse, Resource{}, nil},
		{"delete referenced course", bob, DeleteCourse, Resource{Referenced: true}, appErrors.ErrConflict},
		{"create group", bob, CreateGroup, Resource{}, nil},
		{"update own group", alice, UpdateGroup, Resource{OwnerID: 1}, nil},
		{"update other's group", bob, UpdateGroup, Resource{OwnerID: 1}, appErrors.ErrForbidden},
		{"delete other's group", bob, DeleteGroup, Resource{OwnerID: 1}, appErrors.ErrForbidden},
		{"self join", bob, AddMember, Resource{OwnerID: 1, TargetUserID: 2}, nil},
		{"member adding a third user", bob, AddMember, Resource{OwnerID: 1, TargetUserID: 3}, appErrors.ErrForbidden},
		{"creator adds user", alice, AddMember, Resource{OwnerID: 1, TargetUserID: 3}, nil},
		{"join anonymously", anon, AddMember, Resource{OwnerID: 1}, appErrors.ErrUnauthorized},
		{"member leaves", bob, RemoveMember, Resource{OwnerID: 1, TargetUserID: 2}, nil},
		{"creator cannot leave", alice, RemoveMember, Resource{OwnerID: 1, TargetUserID: 1}, appErrors.ErrForbidden},
		{"creator removes member", alice, RemoveMember, Resource{OwnerID: 1, TargetUserID: 2}, nil},
		{"member removes another", bob, RemoveMember, Resource{OwnerID: 1, TargetUserID: 3}, appErrors.ErrForbidden},
		{"member removes creator", bob, RemoveMember, Resource{OwnerID: 1, TargetUserID: 1}, appErrors.ErrForbidden},
		{"list groups anonymously", anon, ListGroups, Resource{}, nil},
		{"group posts as member", bob, ListGroupPosts, Resource{IsMember: true}, nil},
		{"group posts as non-member", bob, ListGroupPosts, Resource{}, appErrors.ErrForbidden},
		{"group posts anonymously", anon, ListGroupPosts, Resource{IsMember: true}, appErrors.ErrUnauthorized},
		{"own posts listing", alice, ReadUserPosts, Resource{OwnerID: 1}, nil},
		{"another user's posts listing", bob, ReadUserPosts, Resource{OwnerID: 1}, appErrors.ErrForbidden},
		{"unknown action", alice, Action("launch_rocket"), Resource{}, appErrors.ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.principal, tc.action, tc.resource)
			if tc.want == nil {
				assert.NoError(t, err)
				assert.True(t, Allow(tc.principal, tc.action, tc.resource))
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.False(t, Allow(tc.principal, tc.action, tc.resource))
		})
	}
}
