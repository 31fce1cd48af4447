package mirror

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
)

// memTable and memDB back a fake Driver that understands exactly the
// statements sqlgen emits for the mysql dialect.
type memTable struct {
	cols []Column
	rows [][]any
}

type memDB struct {
	mu       sync.Mutex
	tables   map[string]*memTable
	failOn   string
	opened   int
	closed   int
	executed []string
}

func newMemDB() *memDB { return &memDB{tables: map[string]*memTable{}} }

func (m *memDB) put(name string, cols []Column, rows ...[]any) {
	m.tables[name] = &memTable{cols: cols, rows: rows}
}

func (m *memDB) rowCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[name]; ok {
		return len(t.rows)
	}
	return -1
}

type memDriver struct {
	db        *memDB
	connected bool
}

// fakeFactory routes source and target descriptors to their own memDB by Database name.
func fakeFactory(dbs map[string]*memDB) Factory {
	return func(desc *dbconf.Descriptor) (Driver, error) {
		db, ok := dbs[desc.Database]
		if !ok {
			return nil, fmt.Errorf("no fake database %s", desc.Database)
		}
		return &memDriver{db: db}, nil
	}
}

func (d *memDriver) Dialect() string { return dbconf.DialectMySQL }

func (d *memDriver) Connect(context.Context) error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	d.db.opened++
	d.connected = true
	return nil
}

func (d *memDriver) Close() error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	if d.connected {
		d.db.closed++
		d.connected = false
	}
	return nil
}

func (d *memDriver) TableExists(_ context.Context, table string) (bool, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	_, ok := d.db.tables[table]
	return ok, nil
}

func (d *memDriver) Columns(_ context.Context, table string) ([]Column, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	t, ok := d.db.tables[table]
	if !ok {
		return nil, fmt.Errorf("no table %s", table)
	}
	return append([]Column(nil), t.cols...), nil
}

var identRe = regexp.MustCompile("`([^`]+)`")

func idents(q string) []string {
	var out []string
	for _, m := range identRe.FindAllStringSubmatch(q, -1) {
		out = append(out, m[1])
	}
	return out
}

func (d *memDriver) Query(_ context.Context, query string, _ ...any) (*frame.Table, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	ids := idents(query)
	table, cols := ids[len(ids)-1], ids[:len(ids)-1]
	t := d.db.tables[table]
	out := frame.New(cols...)
	for _, r := range t.rows {
		out.Append(append([]any(nil), r...)...)
	}
	return out, nil
}

func (d *memDriver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	return applyStmt(d.db, d.db.tables, query, args)
}

func (d *memDriver) Begin(context.Context) (Tx, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	snapshot := map[string]*memTable{}
	for k, t := range d.db.tables {
		snapshot[k] = &memTable{cols: t.cols, rows: append([][]any(nil), t.rows...)}
	}
	return &memTx{db: d.db, tables: snapshot}, nil
}

type memTx struct {
	db     *memDB
	tables map[string]*memTable
	done   bool
}

func (t *memTx) Exec(_ context.Context, query string, args ...any) (int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return applyStmt(t.db, t.tables, query, args)
}

func (t *memTx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done {
		return fmt.Errorf("tx done")
	}
	t.db.tables = t.tables
	t.done = true
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return fmt.Errorf("tx done")
	}
	t.done = true
	return nil
}

func applyStmt(db *memDB, tables map[string]*memTable, query string, args []any) (int64, error) {
	db.executed = append(db.executed, query)
	if db.failOn != "" && strings.Contains(query, db.failOn) {
		return 0, fmt.Errorf("injected failure on %s", db.failOn)
	}
	ids := idents(query)
	switch {
	case strings.HasPrefix(query, "CREATE TABLE"):
		cols := make([]Column, 0, len(ids)-1)
		for _, name := range ids[1:] {
			cols = append(cols, Column{Name: name, Nullable: true})
		}
		tables[ids[0]] = &memTable{cols: cols}
		return 0, nil
	case strings.HasPrefix(query, "DELETE FROM"):
		t := tables[ids[0]]
		keys := ids[1:]
		kept := t.rows[:0:0]
		var n int64
		for _, r := range t.rows {
			if matches(t.cols, r, keys, args) {
				n++
				continue
			}
			kept = append(kept, r)
		}
		t.rows = kept
		return n, nil
	case strings.HasPrefix(query, "INSERT INTO"):
		t := tables[ids[0]]
		width := len(ids) - 1
		for lo := 0; lo < len(args); lo += width {
			t.rows = append(t.rows, append([]any(nil), args[lo:lo+width]...))
		}
		return int64(len(args) / width), nil
	}
	return 0, fmt.Errorf("unsupported statement %q", query)
}

func matches(cols []Column, row []any, keys []string, args []any) bool {
	for i, k := range keys {
		idx := -1
		for j, c := range cols {
			if c.Name == k {
				idx = j
			}
		}
		if idx < 0 || fmt.Sprint(row[idx]) != fmt.Sprint(args[i]) {
			return false
		}
	}
	return true
}
