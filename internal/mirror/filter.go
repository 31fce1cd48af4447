package mirror

import (
	"fmt"
	"strings"
)

// Filter is one bound comparison on a source column. Unlike SyncOptions.Where
// it is safe to take from untrusted callers: the column must exist on the
// source table, the operator comes from a fixed set and the value is bound.
type Filter struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
}

var filterOps = map[string]string{
	"=": "=", "eq": "=",
	"!=": "<>", "<>": "<>", "ne": "<>",
	">": ">", "gt": ">",
	">=": ">=", "gte": ">=",
	"<": "<", "lt": "<",
	"<=": "<=", "lte": "<=",
}

// Validate checks the operator only; column existence needs the source table.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.Column) == "" {
		return fmt.Errorf("filter: empty column")
	}
	if _, ok := filterOps[strings.ToLower(strings.TrimSpace(f.Op))]; !ok {
		return fmt.Errorf("filter %s: unsupported operator %q", f.Column, f.Op)
	}
	if f.Value == nil {
		return fmt.Errorf("filter %s: missing value", f.Column)
	}
	return nil
}

// renderFilters ANDs filters into a WHERE fragment. argOffset is the number of
// bind values already used by the statement, for postgres $n numbering.
func renderFilters(dialect string, filters []Filter, columns []string, argOffset int) (string, []any, error) {
	known := make(map[string]string, len(columns))
	for _, c := range columns {
		known[strings.ToLower(c)] = c
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return "", nil, err
		}
		col, ok := known[strings.ToLower(strings.TrimSpace(f.Column))]
		if !ok {
			return "", nil, fmt.Errorf("filter: unknown column %q", f.Column)
		}
		op := filterOps[strings.ToLower(strings.TrimSpace(f.Op))]
		conds = append(conds, fmt.Sprintf("%s %s %s", QuoteIdent(dialect, col), op, placeholder(dialect, argOffset+len(args)+1)))
		args = append(args, f.Value)
	}
	return strings.Join(conds, " AND "), args, nil
}

// combineWhere joins a raw condition and rendered filters.
func combineWhere(raw, filters string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return filters
	case filters == "":
		return raw
	}
	return "(" + raw + ") AND " + filters
}
