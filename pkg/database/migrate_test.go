package database

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingCandidatesAreOrdered(t *testing.T) {
	names, err := pendingCandidates()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.up.sql", names[0])
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestMigrateSkipsAppliedAndRunsPending(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	names, err := pendingCandidates()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	existsQuery := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`)
	for i, name := range names {
		applied := i == 0
		mock.ExpectQuery(existsQuery).WithArgs(name).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(applied))
		if applied {
			continue
		}
		mock.ExpectBegin()
		mock.ExpectExec(".+").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations (version) VALUES ($1)`)).WithArgs(name).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	require.NoError(t, Migrate(context.Background(), db, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackFailedFile(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("0001_init.up.sql").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(".+").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = Migrate(context.Background(), db, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_init.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
