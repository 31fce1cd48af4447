package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
)

var hundred = decimal.NewFromInt(100)

// ScalePercent divides col by 100 for cells contributed by a provider that
// reports whole percentages. A column can be scaled only once per result.
func (r *Result) ScalePercent(col string, whole func(provider string) bool) error {
	if r.Empty() {
		return nil
	}
	if r.scaled[col] {
		return fmt.Errorf("column %s already scaled", col)
	}
	j := r.Table.Index(col)
	if j < 0 {
		return nil
	}
	for row := range r.Table.Rows {
		p := r.Origin(row, col)
		if p == "" || !whole(p) {
			continue
		}
		f, ok := frame.ToFloat(r.Table.Rows[row][j])
		if !ok {
			continue
		}
		scaled, _ := decimal.NewFromFloat(f).Div(hundred).Float64()
		r.Table.Rows[row][j] = scaled
	}
	r.scaled[col] = true
	return nil
}

// RemapCodes rewrites codes whose bare form or numeric stem is a key of remap.
// Must run before merging so keys compare equal across providers.
func RemapCodes(t *frame.Table, col string, remap map[string]string) int {
	j := t.Index(col)
	if j < 0 {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		code, ok := frame.ToString(row[j])
		if !ok {
			continue
		}
		stem := strings.TrimSpace(code)
		if i := strings.IndexByte(stem, '.'); i >= 0 {
			stem = stem[:i]
		}
		if target, ok := remap[stem]; ok && target != code {
			row[j] = target
			n++
		}
	}
	return n
}

// Restrict keeps rows whose col value is in allowed.
func Restrict(t *frame.Table, col string, allowed []string) *frame.Table {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return t.Filter(func(r int) bool {
		s := t.String(r, col)
		_, ok := set[s.String]
		return s.Valid && ok
	})
}
