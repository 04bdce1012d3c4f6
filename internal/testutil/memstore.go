// Package testutil provides in-memory stand-ins for the Postgres repositories.
// They honour the same contracts: sql.ErrNoRows for missing rows, pq error
// codes for constraint violations and the repository sentinel errors.
package testutil

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/repository"
)

var (
	uniqueViolation     = &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	foreignKeyViolation = &pq.Error{Code: "23503", Message: "violates foreign key constraint"}
)

type memberKey struct {
	group int64
	user  int64
}

// MemoryDB is a mutex-guarded set of tables.
type MemoryDB struct {
	mu    sync.Mutex
	clock time.Time
	seq   map[string]int64

	users    map[int64]*models.User
	courses  map[int64]*models.Course
	posts    map[int64]*models.Post
	comments map[int64]*models.Comment
	groups   map[int64]*models.Group
	members  map[memberKey]time.Time
	events   []models.SecurityEvent

	Users          *UserStore
	Courses        *CourseStore
	Posts          *PostStore
	Comments       *CommentStore
	Groups         *GroupStore
	SecurityEvents *SecurityEventStore
}

// NewMemoryDB returns an empty database.
func NewMemoryDB() *MemoryDB {
	db := &MemoryDB{
		clock:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		seq:      map[string]int64{},
		users:    map[int64]*models.User{},
		courses:  map[int64]*models.Course{},
		posts:    map[int64]*models.Post{},
		comments: map[int64]*models.Comment{},
		groups:   map[int64]*models.Group{},
		members:  map[memberKey]time.Time{},
	}
	db.Users = &UserStore{db}
	db.Courses = &CourseStore{db}
	db.Posts = &PostStore{db}
	db.Comments = &CommentStore{db}
	db.Groups = &GroupStore{db}
	db.SecurityEvents = &SecurityEventStore{db}
	return db
}

// tick returns a strictly increasing timestamp so ordering by created_at is deterministic.
func (db *MemoryDB) tick() time.Time {
	db.clock = db.clock.Add(time.Millisecond)
	return db.clock
}

func (db *MemoryDB) next(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

func (db *MemoryDB) username(id int64) string {
	if u, ok := db.users[id]; ok {
		return u.Username
	}
	return ""
}

// UserStore implements the user repository.
type UserStore struct{ db *MemoryDB }

func (s *UserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Username, username) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *UserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	return err == nil, nil
}

func (s *UserStore) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return uniqueViolation
		}
	}
	user.ID = s.db.next("users")
	user.CreatedAt = s.db.tick()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	s.db.users[user.ID] = &clone
	return nil
}

func (s *UserStore) UpdatePassword(_ context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	return nil
}

func (s *UserStore) UpdateEmail(_ context.Context, id int64, email string, updatedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Email = email
	u.UpdatedAt = updatedAt
	return nil
}

// CourseStore implements the course repository.
type CourseStore struct{ db *MemoryDB }

func (s *CourseStore) List(context.Context) ([]models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Course{}
	for _, c := range s.db.courses {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *CourseStore) FindByID(_ context.Context, id int64) (*models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (s *CourseStore) FindByCode(_ context.Context, code string) (*models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if c := s.db.courseByCode(code); c != nil {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *CourseStore) Create(_ context.Context, course *models.Course) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.courseByCode(course.Code) != nil {
		return uniqueViolation
	}
	course.ID = s.db.next("courses")
	course.CreatedAt = s.db.tick()
	clone := *course
	s.db.courses[course.ID] = &clone
	return nil
}

func (s *CourseStore) CountPostsByCode(_ context.Context, code string) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.postsForCourse(code), nil
}

func (s *CourseStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	if s.db.postsForCourse(c.Code) > 0 {
		return foreignKeyViolation
	}
	delete(s.db.courses, id)
	return nil
}

func (db *MemoryDB) courseByCode(code string) *models.Course {
	for _, c := range db.courses {
		if c.Code == code {
			return c
		}
	}
	return nil
}

func (db *MemoryDB) postsForCourse(code string) int {
	n := 0
	for _, p := range db.posts {
		if p.Course != nil && *p.Course == code {
			n++
		}
	}
	return n
}

// PostStore implements the post repository.
type PostStore struct{ db *MemoryDB }

func (s *PostStore) view(p *models.Post) models.Post {
	out := *p
	out.Tags = append([]string(nil), p.Tags...)
	out.AuthorUsername = s.db.username(p.AuthorID)
	if p.GroupID != nil {
		if g, ok := s.db.groups[*p.GroupID]; ok {
			name := g.Name
			out.GroupName = &name
		}
	}
	return out
}

func (s *PostStore) list(keep func(p *models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range s.db.posts {
		if keep(p) {
			out = append(out, s.view(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *PostStore) ListVisible(_ context.Context, viewerID int64) ([]models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(p *models.Post) bool {
		if p.GroupID == nil {
			return true
		}
		_, member := s.db.members[memberKey{*p.GroupID, viewerID}]
		return member
	}), nil
}

func (s *PostStore) ListByAuthor(_ context.Context, authorID int64) ([]models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (s *PostStore) ListByGroup(_ context.Context, groupID int64) ([]models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(p *models.Post) bool { return p.GroupID != nil && *p.GroupID == groupID }), nil
}

func (s *PostStore) FindByID(_ context.Context, id int64) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := s.view(p)
	return &out, nil
}

func (s *PostStore) Create(_ context.Context, post *models.Post) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if post.Course != nil && s.db.courseByCode(*post.Course) == nil {
		return repository.ErrCourseMissing
	}
	if post.GroupID != nil {
		if _, ok := s.db.members[memberKey{*post.GroupID, post.AuthorID}]; !ok {
			return repository.ErrMembershipMissing
		}
	}
	post.ID = s.db.next("posts")
	post.CreatedAt = s.db.tick()
	post.UpdatedAt = post.CreatedAt
	clone := *post
	s.db.posts[post.ID] = &clone
	return nil
}

func (s *PostStore) DeleteWithComments(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.posts[id]; !ok {
		return sql.ErrNoRows
	}
	s.db.deletePost(id)
	return nil
}

func (db *MemoryDB) deletePost(id int64) {
	for cid, c := range db.comments {
		if c.PostID == id {
			delete(db.comments, cid)
		}
	}
	delete(db.posts, id)
}

// CommentStore implements the comment repository.
type CommentStore struct{ db *MemoryDB }

func (s *CommentStore) ListByPost(_ context.Context, postID int64) ([]models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Comment{}
	for _, c := range s.db.comments {
		if c.PostID == postID {
			view := *c
			view.Username = s.db.username(c.AuthorID)
			out = append(out, view)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *CommentStore) Create(_ context.Context, comment *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.posts[comment.PostID]; !ok {
		return foreignKeyViolation
	}
	comment.ID = s.db.next("comments")
	comment.CreatedAt = s.db.tick()
	clone := *comment
	s.db.comments[comment.ID] = &clone
	return nil
}

// Count returns the number of stored comments.
func (s *CommentStore) Count() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.comments)
}

// GroupStore implements the group repository.
type GroupStore struct{ db *MemoryDB }

func (s *GroupStore) view(g *models.Group) models.Group {
	out := *g
	out.CreatorUsername = s.db.username(g.CreatorID)
	out.MemberCount = 0
	for key := range s.db.members {
		if key.group == g.ID {
			out.MemberCount++
		}
	}
	return out
}

func (s *GroupStore) sorted(keep func(g *models.Group) bool) []models.Group {
	out := []models.Group{}
	for _, g := range s.db.groups {
		if keep(g) {
			out = append(out, s.view(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *GroupStore) List(context.Context) ([]models.Group, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.sorted(func(*models.Group) bool { return true }), nil
}

func (s *GroupStore) ListByMember(_ context.Context, userID int64) ([]models.Group, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.sorted(func(g *models.Group) bool {
		_, ok := s.db.members[memberKey{g.ID, userID}]
		return ok
	}), nil
}

func (s *GroupStore) FindByID(_ context.Context, id int64) (*models.Group, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	g, ok := s.db.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := s.view(g)
	return &out, nil
}

func (s *GroupStore) ListMembers(_ context.Context, groupID int64) ([]models.GroupMember, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.GroupMember{}
	for key, joined := range s.db.members {
		if key.group == groupID {
			out = append(out, models.GroupMember{GroupID: groupID, UserID: key.user, Username: s.db.username(key.user), JoinedAt: joined})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *GroupStore) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.members[memberKey{groupID, userID}]
	return ok, nil
}

func (s *GroupStore) ExistsByCreatorAndName(_ context.Context, creatorID int64, name string, excludeID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.groupNameTaken(creatorID, name, excludeID), nil
}

func (db *MemoryDB) groupNameTaken(creatorID int64, name string, excludeID int64) bool {
	for _, g := range db.groups {
		if g.ID != excludeID && g.CreatorID == creatorID && strings.EqualFold(g.Name, name) {
			return true
		}
	}
	return false
}

func (s *GroupStore) CreateWithCreator(_ context.Context, group *models.Group) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.groupNameTaken(group.CreatorID, group.Name, 0) {
		return uniqueViolation
	}
	group.ID = s.db.next("groups")
	group.CreatedAt = s.db.tick()
	group.UpdatedAt = group.CreatedAt
	clone := *group
	s.db.groups[group.ID] = &clone
	s.db.members[memberKey{group.ID, group.CreatorID}] = group.CreatedAt
	return nil
}

func (s *GroupStore) Update(_ context.Context, group *models.Group) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	g, ok := s.db.groups[group.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if s.db.groupNameTaken(g.CreatorID, group.Name, g.ID) {
		return uniqueViolation
	}
	g.Name = group.Name
	g.Description = group.Description
	g.UpdatedAt = group.UpdatedAt
	return nil
}

func (s *GroupStore) DeleteCascade(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.groups[id]; !ok {
		return sql.ErrNoRows
	}
	for pid, p := range s.db.posts {
		if p.GroupID != nil && *p.GroupID == id {
			s.db.deletePost(pid)
		}
	}
	for key := range s.db.members {
		if key.group == id {
			delete(s.db.members, key)
		}
	}
	delete(s.db.groups, id)
	return nil
}

func (s *GroupStore) AddMember(_ context.Context, groupID, userID int64, joinedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.groups[groupID]; !ok {
		return foreignKeyViolation
	}
	if _, ok := s.db.users[userID]; !ok {
		return foreignKeyViolation
	}
	key := memberKey{groupID, userID}
	if _, ok := s.db.members[key]; !ok {
		s.db.members[key] = joinedAt
	}
	return nil
}

func (s *GroupStore) RemoveMember(_ context.Context, groupID, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := memberKey{groupID, userID}
	if _, ok := s.db.members[key]; !ok {
		return sql.ErrNoRows
	}
	delete(s.db.members, key)
	return nil
}

// SecurityEventStore records persisted security events.
type SecurityEventStore struct{ db *MemoryDB }

func (s *SecurityEventStore) Create(_ context.Context, event *models.SecurityEvent) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.events = append(s.db.events, *event)
	return nil
}

// Events returns a copy of the stored events.
func (s *SecurityEventStore) Events() []models.SecurityEvent {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]models.SecurityEvent(nil), s.db.events...)
}
