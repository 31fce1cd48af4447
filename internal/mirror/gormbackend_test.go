package mirror

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
)

func mockGormDriver(t *testing.T, database string) (*gormDriver, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gdb, err := gorm.Open(gmysql.New(gmysql.Config{Conn: db, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return newGormDriverWithDB(&dbconf.Descriptor{Database: database}, gdb), mock
}

func TestGormExistsQueryUsesGormBindVars(t *testing.T) {
	q := gormExistsQuery(dbconf.DialectPostgres)
	assert.NotContains(t, q, "$1")
	assert.Contains(t, q, "LOWER(?)")
	assert.Equal(t, mysqlTableExists, gormExistsQuery(dbconf.DialectMySQL))
}

func TestGormDriverColumns(t *testing.T) {
	d, mock := mockGormDriver(t, "src")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DATABASE()")).
		WillReturnRows(sqlmock.NewRows([]string{"DATABASE()"}).AddRow("src"))
	mock.ExpectQuery(regexp.QuoteMeta("Information_schema.SCHEMATA")).
		WithArgs("src%", "src").
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).AddRow("src"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `prices` LIMIT")).
		WillReturnRows(sqlmock.NewRows([]string{"code", "close"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns WHERE table_schema = ? AND table_name = ?")).
		WithArgs("src", "prices").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_default", "is_nullable", "data_type",
			"character_maximum_length", "column_type", "column_key", "extra", "column_comment",
			"numeric_precision", "numeric_scale", "datetime_precision"}).
			AddRow("code", nil, false, "varchar", int64(32), "varchar(32)", "PRI", "", "", nil, nil, nil).
			AddRow("close", "0", true, "double", nil, "double", "", "", "", int64(22), nil, nil))

	cols, err := d.Columns(context.Background(), "prices")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, Column{Name: "code", Type: "varchar(32)"}, cols[0])
	assert.Equal(t, "close", cols[1].Name)
	assert.Equal(t, "double", cols[1].Type)
	assert.True(t, cols[1].Nullable)
	assert.Equal(t, "0", cols[1].Default.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDriverLoadCommits(t *testing.T) {
	d, mock := mockGormDriver(t, "dst")
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs("prices").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `prices`")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `prices` (`code`, `close`) VALUES (?, ?)")).
		WithArgs("600000.SH", 10.5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `code`, `close` FROM `prices`")).
		WillReturnRows(sqlmock.NewRows([]string{"code", "close"}).AddRow([]byte("600000.SH"), 10.5))
	mock.ExpectClose()

	ok, err := d.TableExists(ctx, "prices")
	require.NoError(t, err)
	assert.True(t, ok)

	tx, err := d.Begin(ctx)
	require.NoError(t, err)
	n, err := tx.Exec(ctx, DeleteSQL(d.Dialect(), "prices", nil))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	n, err = tx.Exec(ctx, InsertSQL(d.Dialect(), "prices", []string{"code", "close"}, 1), "600000.SH", 10.5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, tx.Commit())

	got, err := d.Query(ctx, SelectSQL(d.Dialect(), "prices", []string{"code", "close"}, ""))
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"600000.SH", 10.5}}, got.Rows)

	require.NoError(t, d.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDriverRollsBackOnInsertFailure(t *testing.T) {
	d, mock := mockGormDriver(t, "dst")
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `prices`")).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	tx, err := d.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, InsertSQL(d.Dialect(), "prices", []string{"code"}, 1), "600000.SH")
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
