// Package mirror replicates tables between two databases and provides the
// single-table append path used by the persistence sink.
package mirror

import (
	"context"

	"github.com/guregu/null/v6"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
)

// Column is one row of information_schema.columns.
type Column struct {
	Name     string
	Type     string // declared type, e.g. varchar(32), double, datetime
	Nullable bool
	Default  null.String
	Extra    string
}

// Driver is the only surface the engine talks to; one implementation per
// client library, chosen by configuration.
type Driver interface {
	Dialect() string
	Connect(ctx context.Context) error
	Close() error
	TableExists(ctx context.Context, table string) (bool, error)
	Columns(ctx context.Context, table string) ([]Column, error)
	Query(ctx context.Context, query string, args ...any) (*frame.Table, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Commit() error
	Rollback() error
}

// Factory builds an unconnected driver for a descriptor.
type Factory func(desc *dbconf.Descriptor) (Driver, error)
