package mirror

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

// SyncOptions: Where is a raw SQL condition on the source table (trusted
// config and CLI only), Args its bind values. Filters are bound comparisons.
type SyncOptions struct {
	Where    string
	Args     []any
	Filters  []Filter
	Truncate bool
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TableResult is one entry of a multi-table sync.
type TableResult struct {
	Status  string `json:"status"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// Recorder receives per-table outcomes; metrics implement it.
type Recorder interface {
	ObserveSync(table, status string, rows int, elapsed time.Duration)
}

type Engine struct {
	source   *dbconf.Descriptor
	target   *dbconf.Descriptor
	factory  Factory
	recorder Recorder
}

func NewEngine(source, target *dbconf.Descriptor, factory Factory) *Engine {
	return &Engine{source: source, target: target, factory: factory}
}

func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

func (e *Engine) Target() *dbconf.Descriptor { return e.target }

func (e *Engine) connect(ctx context.Context, desc *dbconf.Descriptor, role string) (Driver, error) {
	if desc == nil {
		return nil, errors.Errorf("%s database not configured", role)
	}
	d, err := e.factory(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s driver", role)
	}
	if err := d.Connect(ctx); err != nil {
		_ = d.Close()
		return nil, errors.Wrapf(err, "connect %s %s", role, desc)
	}
	return d, nil
}

// SyncTable copies table from source to target and returns the number of
// rows loaded. Both connections are released on every path; a failure after
// the transaction opened rolls the whole table back.
func (e *Engine) SyncTable(ctx context.Context, table string, opts SyncOptions) (n int, err error) {
	start := time.Now()
	ctx, span := otel.Tracer("dataupdate/mirror").Start(ctx, "mirror.sync_table", trace.WithAttributes(
		attribute.String("table", table),
		attribute.Bool("truncate", opts.Truncate),
	))
	defer func() {
		status := StatusSuccess
		if err != nil {
			status = StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("rows", n))
		span.End()
		if e.recorder != nil {
			e.recorder.ObserveSync(table, status, n, time.Since(start))
		}
	}()

	src, err := e.connect(ctx, e.source, "source")
	if err != nil {
		return 0, err
	}
	defer closeQuietly(ctx, src, "source", table)

	dst, err := e.connect(ctx, e.target, "target")
	if err != nil {
		return 0, err
	}
	defer closeQuietly(ctx, dst, "target", table)

	exists, err := src.TableExists(ctx, table)
	if err != nil {
		return 0, errors.Wrapf(err, "check source table %s", table)
	}
	if !exists {
		return 0, errors.Wrapf(ErrSourceTableNotFound, "%s", table)
	}
	cols, err := src.Columns(ctx, table)
	if err != nil {
		return 0, errors.Wrapf(err, "introspect source table %s", table)
	}
	if len(cols) == 0 {
		return 0, errors.Errorf("source table %s has no columns", table)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	cond, fargs, err := renderFilters(src.Dialect(), opts.Filters, names, len(opts.Args))
	if err != nil {
		return 0, errors.Wrapf(err, "source table %s", table)
	}
	args := append(append([]any(nil), opts.Args...), fargs...)

	if err := e.ensureTarget(ctx, dst, table, cols); err != nil {
		return 0, err
	}

	data, err := src.Query(ctx, SelectSQL(src.Dialect(), table, names, combineWhere(opts.Where, cond)), args...)
	if err != nil {
		return 0, errors.Wrapf(err, "read source table %s", table)
	}

	tx, err := dst.Begin(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "begin target transaction for %s", table)
	}
	if err := loadInTx(ctx, tx, dst.Dialect(), table, data, opts.Truncate, nil); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Errorf(ctx, "[mirror] rollback %s failed: %v", table, rbErr)
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return 0, errors.Wrapf(err, "commit %s", table)
	}
	logging.Infof(ctx, "[mirror] table %s synced rows=%d truncate=%v", table, data.Len(), opts.Truncate)
	return data.Len(), nil
}

func (e *Engine) ensureTarget(ctx context.Context, dst Driver, table string, cols []Column) error {
	exists, err := dst.TableExists(ctx, table)
	if err != nil {
		return errors.Wrapf(err, "check target table %s", table)
	}
	if exists {
		return nil
	}
	ddl := CreateTableDDL(dst.Dialect(), table, cols)
	if _, err := dst.Exec(ctx, ddl); err != nil {
		return errors.Wrapf(err, "create target table %s", table)
	}
	logging.Infof(ctx, "[mirror] created target table %s with %d columns", table, len(cols))
	return nil
}

// loadInTx optionally clears rows (all of them, or those matching keys) and
// inserts data in chunks that fit the placeholder limit.
func loadInTx(ctx context.Context, tx Tx, dialect, table string, data *frame.Table, truncate bool, replaceKeys []string) error {
	if truncate {
		if _, err := tx.Exec(ctx, DeleteSQL(dialect, table, nil)); err != nil {
			return errors.Wrapf(err, "truncate %s", table)
		}
	}
	if len(replaceKeys) > 0 {
		for _, key := range distinctKeys(data, replaceKeys) {
			if _, err := tx.Exec(ctx, DeleteSQL(dialect, table, replaceKeys), key...); err != nil {
				return errors.Wrapf(err, "delete superseded rows of %s", table)
			}
		}
	}
	if data.Empty() {
		return nil
	}
	chunk := ChunkRows(len(data.Columns))
	for lo := 0; lo < data.Len(); lo += chunk {
		hi := lo + chunk
		if hi > data.Len() {
			hi = data.Len()
		}
		args := make([]any, 0, (hi-lo)*len(data.Columns))
		for _, row := range data.Rows[lo:hi] {
			for _, v := range row {
				args = append(args, frame.Normalize(v))
			}
		}
		if _, err := tx.Exec(ctx, InsertSQL(dialect, table, data.Columns, hi-lo), args...); err != nil {
			return errors.Wrapf(err, "insert into %s rows %d-%d", table, lo, hi)
		}
	}
	return nil
}

func distinctKeys(t *frame.Table, keys []string) [][]any {
	seen := map[string]struct{}{}
	var out [][]any
	for r := 0; r < t.Len(); r++ {
		tuple := make([]any, len(keys))
		sig := ""
		for i, k := range keys {
			tuple[i] = frame.Normalize(t.Cell(r, k))
			s, _ := frame.ToString(tuple[i])
			sig += s + "\x00"
		}
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, tuple)
	}
	return out
}

// SyncMultipleTables syncs each table independently, in name order. A failed
// table is recorded and never stops the others.
func (e *Engine) SyncMultipleTables(ctx context.Context, tables map[string]SyncOptions) map[string]TableResult {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]TableResult, len(tables))
	for _, name := range names {
		n, err := e.SyncTable(ctx, name, tables[name])
		if err != nil {
			logging.Errorf(ctx, "[mirror] table %s failed: %v", name, err)
			out[name] = TableResult{Status: StatusError, Message: err.Error()}
			continue
		}
		out[name] = TableResult{Status: StatusSuccess, Count: n}
	}
	return out
}

func closeQuietly(ctx context.Context, d Driver, role, table string) {
	if err := d.Close(); err != nil {
		logging.Warnf(ctx, "[mirror] close %s connection for %s: %v", role, table, err)
	}
}
