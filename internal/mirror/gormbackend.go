package mirror

import (
	"context"
	"database/sql"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/gormdb"
)

// gormDriver opens connections through gorm and uses its migrator for
// introspection. Statements go to the underlying ConnPool untouched so the
// dialect placeholders produced by sqlgen survive.
type gormDriver struct {
	desc *dbconf.Descriptor
	db   *gorm.DB
}

func NewGormDriver(desc *dbconf.Descriptor) (Driver, error) {
	switch desc.DialectOrDefault() {
	case dbconf.DialectMySQL, dbconf.DialectPostgres:
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "dialect %q", desc.Dialect)
	}
	return &gormDriver{desc: desc}, nil
}

func newGormDriverWithDB(desc *dbconf.Descriptor, db *gorm.DB) *gormDriver {
	return &gormDriver{desc: desc, db: db}
}

// gormExistsQuery swaps postgres $1 for ? since gorm Raw binds its own vars.
func gormExistsQuery(dialect string) string {
	return strings.ReplaceAll(existsQuery(dialect), "$1", "?")
}

func (d *gormDriver) Dialect() string { return d.desc.DialectOrDefault() }

func (d *gormDriver) Connect(ctx context.Context) error {
	if d.db != nil {
		return nil
	}
	db, err := gormdb.Open(d.desc, nil)
	if err != nil {
		return err
	}
	raw, err := db.DB()
	if err != nil {
		return err
	}
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return err
	}
	d.db = db
	return nil
}

func (d *gormDriver) Close() error {
	if d.db == nil {
		return nil
	}
	raw, err := d.db.DB()
	d.db = nil
	if err != nil {
		return err
	}
	return raw.Close()
}

func (d *gormDriver) TableExists(ctx context.Context, table string) (bool, error) {
	var n int64
	err := d.db.WithContext(ctx).Raw(gormExistsQuery(d.Dialect()), table).Scan(&n).Error
	return n > 0, err
}

func (d *gormDriver) Columns(ctx context.Context, table string) ([]Column, error) {
	types, err := d.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}
	out := make([]Column, 0, len(types))
	for _, ct := range types {
		c := Column{Name: ct.Name()}
		if full, ok := ct.ColumnType(); ok && full != "" {
			c.Type = full
		} else {
			c.Type = strings.ToLower(ct.DatabaseTypeName())
		}
		if nullable, ok := ct.Nullable(); ok {
			c.Nullable = nullable
		} else {
			c.Nullable = true
		}
		if def, ok := ct.DefaultValue(); ok {
			c.Default = null.StringFrom(def)
		}
		if auto, ok := ct.AutoIncrement(); ok && auto {
			c.Extra = "auto_increment"
		}
		out = append(out, c)
	}
	return out, nil
}

func (d *gormDriver) Query(ctx context.Context, query string, args ...any) (*frame.Table, error) {
	rows, err := d.db.Statement.ConnPool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return rowsToTable(rows)
}

func (d *gormDriver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execPool(ctx, d.db.Statement.ConnPool, query, args...)
}

func (d *gormDriver) Begin(ctx context.Context) (Tx, error) {
	tx := d.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return gormTx{tx: tx}, nil
}

type gormTx struct{ tx *gorm.DB }

func (t gormTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execPool(ctx, t.tx.Statement.ConnPool, query, args...)
}

func (t gormTx) Commit() error   { return t.tx.Commit().Error }
func (t gormTx) Rollback() error { return t.tx.Rollback().Error }

func execPool(ctx context.Context, pool gorm.ConnPool, query string, args ...any) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if res, err = pool.ExecContext(ctx, query, args...); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// NewFactory selects the client library named by the mirror backend setting.
func NewFactory(backend string) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "sql":
		return NewSQLDriver, nil
	case "gorm":
		return NewGormDriver, nil
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", backend)
	}
}
