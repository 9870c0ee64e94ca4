package checks

import (
	"context"
	"testing"

	"feedsync/core/database"
	"feedsync/core/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(nil, store.ExpectedColumns())
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_MigratedSQLite(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.NewGormStore(db).Migrate(context.Background()))

	report, err := CheckSchema(db, store.ExpectedColumns())
	require.NoError(t, err)
	assert.True(t, report.Matched, "%+v", report)
	assert.Equal(t, "sqlite", report.Driver)
	assert.Len(t, report.Tables, len(store.ExpectedColumns()))
	for name, tbl := range report.Tables {
		assert.True(t, tbl.Exists, name)
		assert.Equal(t, "ok", tbl.Status, name)
	}
}

func TestCheckSchema_MissingTableAndColumn(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE posts (id TEXT PRIMARY KEY, text TEXT)").Error)

	report, err := CheckSchema(db, map[string][]string{
		"posts":    {"id", "text", "last_updated"},
		"accounts": {"id"},
	})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Equal(t, []string{"last_updated"}, report.Tables["posts"].MissingColumns)
	assert.True(t, report.Tables["posts"].Exists)
	assert.False(t, report.Tables["accounts"].Exists)
	assert.Equal(t, "error", report.Tables["accounts"].Status)
}

func TestCheckSchema_MySQLInspectFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("id", "varchar(64)", "NO", "PRI", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `accounts`").WillReturnRows(rows)
	mock.ExpectQuery("SHOW COLUMNS FROM `posts`").WillReturnError(assert.AnError)

	report, err := CheckSchema(db, map[string][]string{"accounts": {"id"}, "posts": {"id"}})
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Equal(t, "ok", report.Tables["accounts"].Status)
	assert.Equal(t, "error", report.Tables["posts"].Status)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "posts")
	assert.NoError(t, mock.ExpectationsWereMet())
}
