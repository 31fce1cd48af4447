// Package standardize maps provider tables onto a family's canonical schema.
package standardize

import (
	"fmt"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
)

type Kind int

const (
	KindOK Kind = iota
	KindEmpty
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmpty:
		return "empty"
	default:
		return "malformed"
	}
}

// Result separates "no data" from "malformed data". Table is never nil.
type Result struct {
	Table *frame.Table
	Err   error
}

func (r Result) Kind() Kind {
	switch {
	case r.Err != nil:
		return KindMalformed
	case r.Table.Empty():
		return KindEmpty
	default:
		return KindOK
	}
}

// Apply standardizes t and turns any failure, panics included, into a
// malformed result carrying an empty table.
func Apply(t *frame.Table, s Schema) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Table: frame.New(), Err: fmt.Errorf("standardize %s: %v", s.Family, p)}
		}
	}()
	out, err := Standardize(t, s)
	if err != nil {
		return Result{Table: frame.New(), Err: err}
	}
	return Result{Table: out}
}

// Standardize renames columns through the synonym map, keeps the first of
// duplicate canonical columns, drops the rest and reorders to canonical order.
// Canonical columns missing from t stay absent. Idempotent.
func Standardize(t *frame.Table, s Schema) (*frame.Table, error) {
	if t == nil {
		return frame.New(), nil
	}
	src := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		name, ok := s.canonical(NormalizeName(c))
		if !ok {
			continue
		}
		if _, dup := src[name]; !dup {
			src[name] = i
		}
	}
	if t.Len() > 0 {
		if _, ok := src[s.Key()]; !ok {
			return nil, fmt.Errorf("standardize %s: no %s column in %v", s.Family, s.Key(), t.Columns)
		}
	}

	var cols []string
	var idx []int
	for _, c := range s.Columns {
		if i, ok := src[c]; ok {
			cols = append(cols, c)
			idx = append(idx, i)
		}
	}
	out := frame.New(cols...)
	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("standardize %s: row %d has %d cells, want %d", s.Family, r, len(row), len(t.Columns))
		}
		cells := make([]any, len(cols))
		for j, i := range idx {
			cells[j] = coerce(row[i], s.Strings[cols[j]])
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

func coerce(v any, asString bool) any {
	if asString {
		if s, ok := frame.ToString(v); ok {
			return s
		}
		return nil
	}
	if f, ok := frame.ToFloat(v); ok {
		return f
	}
	return nil
}
