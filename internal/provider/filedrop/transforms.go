package filedrop

import (
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
)

// ComponentWeights keeps rows with status 1 and turns percent weights into
// fractions. Output columns: code, weight.
func ComponentWeights(t *frame.Table) (*frame.Table, error) {
	if t.Empty() {
		return frame.New("code", "weight"), nil
	}
	kept := t
	if t.Has("status") {
		kept = t.Filter(func(r int) bool {
			s := t.Float(r, "status")
			return s.Valid && s.Float64 == 1
		})
	}
	out := kept.Select("code", "weight")
	for r := range out.Rows {
		if w, ok := frame.ToFloat(out.Rows[r][1]); ok {
			out.Rows[r][1] = w / 100
		} else {
			out.Rows[r][1] = nil
		}
	}
	return out, nil
}
