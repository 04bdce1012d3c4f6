package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashVG/techprep-sub000/internal/models"
)

var postRowColumns = []string{"id", "author_id", "title", "content", "code", "language", "tags", "course", "group_id", "created_at", "updated_at", "author_username", "group_name"}

func TestListVisibleFiltersByMembership(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(postRowColumns).
		AddRow(2, 1, "Heaps", "ok", "print(1)", "python", "{ds,heap}", "CPSC221", 10, now, now, "alice", "G1").
		AddRow(1, 1, "Intro", "hi", "", "java", "{}", nil, nil, now, now, "alice", nil)
	mock.ExpectQuery(`WHERE p.group_id IS NULL\s+OR EXISTS \(SELECT 1 FROM group_members gm WHERE gm.group_id = p.group_id AND gm.user_id = \$1\) ORDER BY p.created_at DESC, p.id DESC`).
		WithArgs(int64(2)).
		WillReturnRows(rows)

	posts, err := repo.ListVisible(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, pq.StringArray{"ds", "heap"}, posts[0].Tags)
	require.NotNil(t, posts[0].GroupID)
	assert.Equal(t, int64(10), *posts[0].GroupID)
	assert.Equal(t, "G1", *posts[0].GroupName)
	assert.True(t, posts[1].IsPublic())
	assert.Nil(t, posts[1].Course)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostChecksCourseAndMembershipInTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	course := "CPSC221"
	group := int64(10)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM courses WHERE code = $1 FOR SHARE")).
		WithArgs(course).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 FOR SHARE")).
		WithArgs(group, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO posts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
	mock.ExpectCommit()

	post := &models.Post{
		AuthorID: 1, Title: "Heaps", Content: "ok", Code: "print(1)",
		Language: models.LanguagePython, Tags: pq.StringArray{"ds"}, Course: &course, GroupID: &group,
	}
	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, int64(7), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRollsBackWhenCourseMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	course := "NOPE101"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM courses").WithArgs(course).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Post{AuthorID: 1, Course: &course, Language: models.LanguageJava})
	assert.ErrorIs(t, err, ErrCourseMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRollsBackWhenNotMember(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	group := int64(10)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM group_members").WithArgs(group, int64(2)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Post{AuthorID: 2, GroupID: &group, Language: models.LanguageCPP})
	assert.ErrorIs(t, err, ErrMembershipMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithCommentsIsAtomic(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE post_id = $1")).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = $1")).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithComments(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingPostRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM comments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM posts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteWithComments(context.Background(), 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCommentsOrdersAscending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommentRepository(db)

	now := time.Now()
	mock.ExpectQuery(`ORDER BY c.created_at ASC, c.id ASC`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "author_id", "content", "created_at", "username"}).
			AddRow(1, 3, 2, "first", now, "bob").
			AddRow(2, 3, 1, "second", now, "alice"))

	comments, err := repo.ListByPost(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "bob", comments[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDeleteAndCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE course = $1")).
		WithArgs("CPSC221").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	count, err := repo.CountPostsByCode(context.Background(), "CPSC221")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnError(&pq.Error{Code: "23503"})
	err = repo.Delete(context.Background(), 4)
	assert.True(t, IsForeignKeyViolation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
