package editor

import (
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/adapters/mysql"
	"github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/model"
	"github.com/stretchr/testify/require"
)

// newPostgresSession returns a session whose adapter talks to sqlmock.
func newPostgresSession(t *testing.T) (*Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adp := postgres.New(nil)
	adp.DB = db
	return NewSession(adp, testutil.NewTestLogger(t)), mock
}

// newMySQLSession returns a session for script previews only.
func newMySQLSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(mysql.New(nil), testutil.NewTestLogger(t))
}

// addUsers registers a persisted users(id, email) table.
func addUsers(t *testing.T, s *Session, schema string) *model.Table {
	t.Helper()
	tbl := model.FromMetadata(&core.TableMetadata{
		Schema: schema,
		Name:   "users",
		Columns: []core.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, Position: 1},
			{Name: "email", Type: "TEXT", Nullable: true, Position: 2},
		},
	})
	require.NoError(t, s.Catalog().Add(tbl))
	return tbl
}

func column(t *testing.T, tbl *model.Table, name string) *model.Column {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	return col
}

func execOK() driver.Result { return sqlmock.NewResult(0, 0) }
