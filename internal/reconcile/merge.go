// Package reconcile merges per-provider tables of one family and date into a
// single canonical table under a priority order.
package reconcile

import (
	"sort"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
)

// ProviderTable is one provider's standardized table.
type ProviderTable struct {
	Provider string
	Table    *frame.Table
}

// Result is the reconciled table plus the provider that supplied every cell.
type Result struct {
	Table   *frame.Table
	Sources []string // non-empty providers in priority order

	origin map[string][]string
	scaled map[string]bool
}

func (r *Result) Empty() bool { return r == nil || r.Table.Empty() }

// Origin names the provider of a cell, "" for NULL cells.
func (r *Result) Origin(row int, col string) string {
	o := r.origin[col]
	if row < 0 || row >= len(o) {
		return ""
	}
	return o[row]
}

// Provenance counts filled cells per column and provider.
func (r *Result) Provenance() map[string]map[string]int {
	out := make(map[string]map[string]int, len(r.origin))
	for col, rows := range r.origin {
		counts := map[string]int{}
		for _, p := range rows {
			if p != "" {
				counts[p]++
			}
		}
		out[col] = counts
	}
	return out
}

// ColumnMerge reconciles tables onto columns (key first).
//
// Zero non-empty inputs give an empty table. One non-empty input is returned
// as is, reshaped to columns. Otherwise the key set is the sorted union and
// every column is filled independently: the highest-priority provider with a
// non-null value for the key wins, later providers only fill cells still NULL.
func ColumnMerge(tables []ProviderTable, order []string, columns []string) *Result {
	key := columns[0]
	res := &Result{origin: map[string][]string{}, scaled: map[string]bool{}}

	var live []ProviderTable
	for _, pt := range Ordered(tables, order) {
		if pt.Table.Empty() || !pt.Table.Has(key) {
			continue
		}
		deduped := pt.Table.DedupFirst(key)
		if deduped.Empty() {
			continue
		}
		live = append(live, ProviderTable{Provider: pt.Provider, Table: deduped})
		res.Sources = append(res.Sources, pt.Provider)
	}

	switch len(live) {
	case 0:
		res.Table = frame.New(columns...)
		return res
	case 1:
		res.Table = live[0].Table.Select(columns...)
		for j, col := range columns {
			o := make([]string, res.Table.Len())
			for r, row := range res.Table.Rows {
				if !frame.IsNull(row[j]) {
					o[r] = live[0].Provider
				}
			}
			res.origin[col] = o
		}
		return res
	}

	lookup := make([]map[string]int, len(live))
	union := map[string]struct{}{}
	for i, pt := range live {
		lookup[i] = make(map[string]int, pt.Table.Len())
		for r := 0; r < pt.Table.Len(); r++ {
			code := pt.Table.String(r, key).String
			lookup[i][code] = r
			union[code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(union))
	for c := range union {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	out := frame.New(columns...)
	for _, c := range codes {
		out.Append(c)
	}
	keyOrigin := make([]string, len(codes))
	for r, c := range codes {
		for i := range live {
			if _, ok := lookup[i][c]; ok {
				keyOrigin[r] = live[i].Provider
				break
			}
		}
	}
	res.origin[key] = keyOrigin

	for j := 1; j < len(columns); j++ {
		col := columns[j]
		o := make([]string, len(codes))
		for i, pt := range live {
			ci := pt.Table.Index(col)
			if ci < 0 {
				continue
			}
			for r, c := range codes {
				if o[r] != "" {
					continue
				}
				src, ok := lookup[i][c]
				if !ok {
					continue
				}
				if v := pt.Table.Rows[src][ci]; !frame.IsNull(v) {
					out.Rows[r][j] = v
					o[r] = pt.Provider
				}
			}
		}
		res.origin[col] = o
	}
	res.Table = out
	return res
}

// Ordered sorts tables by their position in order; unknown providers keep
// their relative order after the known ones.
func Ordered(tables []ProviderTable, order []string) []ProviderTable {
	rank := make(map[string]int, len(order))
	for i, p := range order {
		if _, dup := rank[p]; !dup {
			rank[p] = i
		}
	}
	pos := func(p string) int {
		if r, ok := rank[p]; ok {
			return r
		}
		return len(order)
	}
	out := append([]ProviderTable(nil), tables...)
	sort.SliceStable(out, func(a, b int) bool { return pos(out[a].Provider) < pos(out[b].Provider) })
	return out
}
