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

func TestCourseListOrdersByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "created_at"}).
		AddRow(2, "CPSC110", nil, now).
		AddRow(1, "CPSC221", "Algorithms", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, created_at FROM courses ORDER BY code ASC")).WillReturnRows(rows)

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Nil(t, courses[0].Name)
	require.NotNil(t, courses[1].Name)
	assert.Equal(t, "Algorithms", *courses[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseFindByCodePassesThroughNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("FROM courses WHERE code = \\$1").WithArgs("MATH100").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCode(context.Background(), "MATH100")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCreateSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("INSERT INTO courses").
		WithArgs("CPSC221", nil).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Course{Code: "CPSC221"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCountPostsByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE course = $1")).
		WithArgs("CPSC221").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountPostsByCode(context.Background(), "CPSC221")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("DELETE FROM courses WHERE id = \\$1").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM courses WHERE id = \\$1").WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM courses WHERE id = \\$1").WithArgs(int64(3)).WillReturnError(&pq.Error{Code: "23503"})

	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), sql.ErrNoRows)
	assert.True(t, IsForeignKeyViolation(repo.Delete(context.Background(), 3)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentListByPostOrdersOldestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "post_id", "author_id", "content", "created_at", "username"}).
		AddRow(1, 5, 2, "first", now, "bob").
		AddRow(2, 5, 1, "second", now, "alice")
	mock.ExpectQuery("ORDER BY c.created_at ASC, c.id ASC").WithArgs(int64(5)).WillReturnRows(rows)

	comments, err := repo.ListByPost(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "bob", comments[0].Username)
	assert.Equal(t, int64(2), comments[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentCreateFillsGeneratedFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommentRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO comments").
		WithArgs(int64(5), int64(2), "hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, now))

	comment := &models.Comment{PostID: 5, AuthorID: 2, Content: "hello"}
	require.NoError(t, repo.Create(context.Background(), comment))
	assert.Equal(t, int64(9), comment.ID)
	assert.Equal(t, now, comment.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSecurityEventCreateDefaultsFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSecurityEventRepository(db)

	mock.ExpectExec("INSERT INTO security_events").
		WithArgs(sqlmock.AnyArg(), models.SecurityEventLoginFailed, sqlmock.AnyArg(), "10.0.0.1", "POST /auth/login", "{}", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &models.SecurityEvent{Event: models.SecurityEventLoginFailed, IPAddress: "10.0.0.1", Endpoint: "POST /auth/login"}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
