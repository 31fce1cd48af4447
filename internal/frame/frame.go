// Package frame is a small ordered, column-named table used between fetchers,
// the reconciliation engine and the sinks. A nil cell is NULL.
package frame

import (
	"sort"
	"strings"

	"github.com/guregu/null/v6"
)

type Table struct {
	Columns []string
	Rows    [][]any
}

func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// FromRows copies rows into a new table. Short rows are padded with NULL.
func FromRows(columns []string, rows [][]any) *Table {
	t := New(columns...)
	for _, r := range rows {
		t.Append(r...)
	}
	return t
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool { return t.Len() == 0 }

func (t *Table) Index(col string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

func (t *Table) Has(col string) bool { return t.Index(col) >= 0 }

// Append adds a row; missing trailing cells are NULL and extra cells are dropped.
func (t *Table) Append(values ...any) {
	row := make([]any, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

func (t *Table) Cell(row int, col string) any {
	i := t.Index(col)
	if i < 0 || row < 0 || row >= t.Len() {
		return nil
	}
	return t.Rows[row][i]
}

func (t *Table) Set(row int, col string, v any) {
	i := t.Index(col)
	if i < 0 || row < 0 || row >= t.Len() {
		return
	}
	t.Rows[row][i] = v
}

func (t *Table) Float(row int, col string) null.Float {
	f, ok := ToFloat(t.Cell(row, col))
	return null.NewFloat(f, ok)
}

func (t *Table) String(row int, col string) null.String {
	s, ok := ToString(t.Cell(row, col))
	return null.NewString(s, ok)
}

func (t *Table) Column(col string) []any {
	i := t.Index(col)
	out := make([]any, t.Len())
	if i < 0 {
		return out
	}
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Codes returns the non-null string values of the code column.
func (t *Table) Codes() []string {
	var out []string
	for r := 0; r < t.Len(); r++ {
		if s := t.String(r, "code"); s.Valid {
			out = append(out, s.String)
		}
	}
	return out
}

// Select projects onto cols in that order; columns absent from t come back all NULL.
func (t *Table) Select(cols ...string) *Table {
	out := New(cols...)
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Index(c)
	}
	for r := 0; r < t.Len(); r++ {
		row := make([]any, len(cols))
		for i, j := range idx {
			if j >= 0 {
				row[i] = t.Rows[r][j]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// AddColumn appends a column filled with v, or overwrites it when it exists.
func (t *Table) AddColumn(name string, v any) {
	if i := t.Index(name); i >= 0 {
		for _, row := range t.Rows {
			row[i] = v
		}
		return
	}
	t.Columns = append(t.Columns, name)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], v)
	}
}

// Prepend inserts a column filled with v at position 0, moving an existing one.
func (t *Table) Prepend(name string, v any) {
	if i := t.Index(name); i >= 0 {
		t.Columns = append(t.Columns[:i:i], t.Columns[i+1:]...)
		for r, row := range t.Rows {
			t.Rows[r] = append(row[:i:i], row[i+1:]...)
		}
	}
	t.Columns = append([]string{name}, t.Columns...)
	for r, row := range t.Rows {
		t.Rows[r] = append([]any{v}, row...)
	}
}

func (t *Table) Rename(mapping map[string]string) {
	for i, c := range t.Columns {
		if n, ok := mapping[c]; ok {
			t.Columns[i] = n
		}
	}
}

func (t *Table) Filter(keep func(row int) bool) *Table {
	out := New(t.Columns...)
	for r := 0; r < t.Len(); r++ {
		if keep(r) {
			out.Rows = append(out.Rows, append([]any(nil), t.Rows[r]...))
		}
	}
	return out
}

// DedupFirst keeps the first row of every distinct, non-null value of col.
func (t *Table) DedupFirst(col string) *Table {
	seen := make(map[string]struct{}, t.Len())
	return t.Filter(func(r int) bool {
		s := t.String(r, col)
		if !s.Valid {
			return false
		}
		if _, dup := seen[s.String]; dup {
			return false
		}
		seen[s.String] = struct{}{}
		return true
	})
}

// SortBy orders rows by the string form of col; NULLs go last.
func (t *Table) SortBy(col string) {
	i := t.Index(col)
	if i < 0 {
		return
	}
	sort.SliceStable(t.Rows, func(a, b int) bool {
		sa, oka := ToString(t.Rows[a][i])
		sb, okb := ToString(t.Rows[b][i])
		if oka != okb {
			return oka
		}
		return strings.Compare(sa, sb) < 0
	})
}

func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := New(t.Columns...)
	out.Rows = make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		out.Rows[r] = append([]any(nil), row...)
	}
	return out
}
