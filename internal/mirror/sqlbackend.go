package mirror

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/mysql"
)

// sqlDriver talks database/sql through sqlx: go-sql-driver/mysql for mysql,
// pgx stdlib for postgres.
type sqlDriver struct {
	desc *dbconf.Descriptor
	db   *sqlx.DB
	open func(driverName, dsn string) (*sql.DB, error)
}

func NewSQLDriver(desc *dbconf.Descriptor) (Driver, error) {
	switch desc.DialectOrDefault() {
	case dbconf.DialectMySQL, dbconf.DialectPostgres:
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "dialect %q", desc.Dialect)
	}
	return &sqlDriver{desc: desc, open: sql.Open}, nil
}

// newSQLDriverWithDB wraps an already opened handle; tests use it with sqlmock.
func newSQLDriverWithDB(desc *dbconf.Descriptor, db *sql.DB) *sqlDriver {
	return &sqlDriver{desc: desc, db: sqlx.NewDb(db, driverName(desc.DialectOrDefault()))}
}

func driverName(dialect string) string {
	if dialect == dbconf.DialectPostgres {
		return "pgx"
	}
	return "mysql"
}

func (d *sqlDriver) Dialect() string { return d.desc.DialectOrDefault() }

func (d *sqlDriver) Connect(ctx context.Context) error {
	if d.db != nil {
		return nil
	}
	dsn, err := d.desc.BuildDSN()
	if err != nil {
		return err
	}
	raw, err := d.open(driverName(d.Dialect()), dsn)
	if err != nil {
		return err
	}
	mysql.ApplyPool(raw, d.desc)
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return err
	}
	d.db = sqlx.NewDb(raw, driverName(d.Dialect()))
	return nil
}

func (d *sqlDriver) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func (d *sqlDriver) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := d.db.GetContext(ctx, &n, existsQuery(d.Dialect()), table); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *sqlDriver) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := d.db.QueryContext(ctx, columnsQuery(d.Dialect()), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanColumns(d.Dialect(), rows)
}

func (d *sqlDriver) Query(ctx context.Context, query string, args ...any) (*frame.Table, error) {
	rows, err := d.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t := frame.New(cols...)
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = frame.Normalize(v)
		}
		t.Append(vals...)
	}
	return t, rows.Err()
}

func (d *sqlDriver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *sqlDriver) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx: tx}, nil
}

type sqlTx struct{ tx *sqlx.Tx }

func (t sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t sqlTx) Commit() error   { return t.tx.Commit() }
func (t sqlTx) Rollback() error { return t.tx.Rollback() }
