package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashVG/techprep-sub000/internal/models"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
)

type mockUserFinder struct {
	users       map[int64]*models.User
	findByIDErr error
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if user, ok := m.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserListings struct {
	posts    map[int64][]models.Post
	groups   map[int64][]models.Group
	postsErr error
	calls    int
}

func (m *mockUserListings) ListByAuthor(ctx context.Context, authorID int64) ([]models.Post, error) {
	m.calls++
	if m.postsErr != nil {
		return nil, m.postsErr
	}
	return m.posts[authorID], nil
}

func (m *mockUserListings) ListByMember(ctx context.Context, userID int64) ([]models.Group, error) {
	return m.groups[userID], nil
}

func newUserServiceFixture() (*UserService, *mockUserFinder, *mockUserListings) {
	users := &mockUserFinder{users: map[int64]*models.User{
		1: {ID: 1, Username: "alice", Email: "alice@ubc.ca"},
		2: {ID: 2, Username: "bob", Email: "bob@ubc.ca"},
	}}
	listings := &mockUserListings{
		posts:  map[int64][]models.Post{1: {{ID: 10, AuthorID: 1}, {ID: 11, AuthorID: 1, GroupID: int64Ptr(3)}}},
		groups: map[int64][]models.Group{1: {{ID: 3, Name: "G1"}}},
	}
	return NewUserService(users, listings, listings), users, listings
}

func TestUserServiceGetHidesEmailFromOthers(t *testing.T) {
	svc, _, _ := newUserServiceFixture()
	alice := models.Principal{UserID: 1, Authenticated: true}
	bob := models.Principal{UserID: 2, Authenticated: true}

	self, err := svc.Get(context.Background(), alice, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice@ubc.ca", self.Email)

	other, err := svc.Get(context.Background(), bob, 1)
	require.NoError(t, err)
	assert.Empty(t, other.Email)
	assert.Equal(t, "alice", other.Username)

	anon, err := svc.Get(context.Background(), models.Anonymous, 1)
	require.NoError(t, err)
	assert.Empty(t, anon.Email)

	_, err = svc.Get(context.Background(), alice, 99)
	assert.Equal(t, appErrors.KindNotFound, kindOf(err))
}

func TestUserServicePostsOnlyForSelf(t *testing.T) {
	svc, _, listings := newUserServiceFixture()

	posts, err := svc.Posts(context.Background(), models.Principal{UserID: 1, Authenticated: true}, 1)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	_, err = svc.Posts(context.Background(), models.Principal{UserID: 2, Authenticated: true}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.KindForbidden, kindOf(err))
	assert.Equal(t, "you can only list your own posts", appErrors.FromError(err).Message)

	_, err = svc.Posts(context.Background(), models.Anonymous, 1)
	assert.Equal(t, appErrors.KindAuth, kindOf(err))
	assert.Equal(t, 1, listings.calls)
}

func TestUserServicePropagatesStorageFailure(t *testing.T) {
	svc, users, listings := newUserServiceFixture()
	listings.postsErr = errors.New("connection reset")

	_, err := svc.Posts(context.Background(), models.Principal{UserID: 1, Authenticated: true}, 1)
	assert.Equal(t, appErrors.KindInternal, kindOf(err))

	users.findByIDErr = errors.New("timeout")
	_, err = svc.Groups(context.Background(), 1)
	assert.Equal(t, appErrors.KindInternal, kindOf(err))
}

func TestUserServiceGroups(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	groups, err := svc.Groups(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "G1", groups[0].Name)

	groups, err = svc.Groups(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = svc.Groups(context.Background(), 42)
	assert.Equal(t, appErrors.KindNotFound, kindOf(err))
}
