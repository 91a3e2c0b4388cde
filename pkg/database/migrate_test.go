package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMigrations = fstest.MapFS{
	"sql/000001_init.up.sql":   {Data: []byte("CREATE TABLE users (id uuid PRIMARY KEY);")},
	"sql/000001_init.down.sql": {Data: []byte("DROP TABLE users;")},
}

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &Postgres{DB: db}, mock
}

// expectDriverSetup scripts the queries the postgres driver runs when it
// attaches to a connection and finds an existing version table.
func expectDriverSetup(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_DATABASE()")).
		WillReturnRows(sqlmock.NewRows([]string{"current_database"}).AddRow("page_manager"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_SCHEMA()")).
		WillReturnRows(sqlmock.NewRows([]string{"current_schema"}).AddRow("public"))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_lock($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM information_schema.tables")).
		WithArgs("public", "schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestMigrator_CloseReleasesConnection(t *testing.T) {
	pg, mock := newMockPostgres(t)
	expectDriverSetup(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version, dirty FROM "public"."schema_migrations" LIMIT 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}).AddRow(1, false))

	migrator, err := NewMigrator(context.Background(), pg, testMigrations, "sql")
	require.NoError(t, err)
	assert.Equal(t, 1, pg.DB.Stats().InUse)

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, migrator.Close())
	assert.Zero(t, pg.DB.Stats().InUse)
	assert.NoError(t, pg.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewMigrator_ReleasesConnectionOnDriverError(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_DATABASE()")).
		WillReturnError(errors.New("connection reset"))

	_, err := NewMigrator(context.Background(), pg, testMigrations, "sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migration driver")
	assert.Zero(t, pg.DB.Stats().InUse)
}

func TestNewMigrator_MissingSourceDir(t *testing.T) {
	pg, _ := newMockPostgres(t)

	_, err := NewMigrator(context.Background(), pg, testMigrations, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open migration source")
	assert.Zero(t, pg.DB.Stats().OpenConnections)
}
