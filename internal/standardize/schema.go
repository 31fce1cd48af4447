package standardize

import (
	"regexp"
	"strings"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
)

// Schema is the canonical column set of one family. The first column is the key.
type Schema struct {
	Family   string
	Columns  []string
	Synonyms map[string]string
	Strings  map[string]bool
}

var IndexSchema = Schema{
	Family:  consts.FamilyIndex,
	Columns: []string{"code", "open", "high", "low", "close", "pre_close", "pct_chg", "volume", "amt", "turn_over"},
	Synonyms: map[string]string{
		"ts_code":        "code",
		"qtid":           "code",
		"closeprice":     "close",
		"close_price":    "close",
		"prevclose":      "pre_close",
		"prev_close":     "pre_close",
		"prevcloseprice": "pre_close",
		"hi":             "high",
		"lo":             "low",
		"vol":            "volume",
		"value":          "amt",
		"return":         "pct_chg",
		"turn":           "turn_over",
	},
	Strings: map[string]bool{"code": true},
}

var StockSchema = Schema{
	Family:  consts.FamilyStock,
	Columns: []string{"code", "open", "high", "low", "close", "pre_close", "pct_chg", "vwap", "volume", "amt", "adjfactor", "trade_status"},
	Synonyms: merge(IndexSchema.Synonyms, map[string]string{
		"ret":            "pct_chg",
		"ratioadjfactor": "adjfactor",
		"adj_factor":     "adjfactor",
		"tradestatus":    "trade_status",
		"tarde_status":   "trade_status",
	}),
	Strings: map[string]bool{"code": true},
}

func For(family string) (Schema, bool) {
	switch family {
	case consts.FamilyIndex:
		return IndexSchema, true
	case consts.FamilyStock:
		return StockSchema, true
	}
	return Schema{}, false
}

func (s Schema) Key() string { return s.Columns[0] }

func (s Schema) canonical(name string) (string, bool) {
	if mapped, ok := s.Synonyms[name]; ok {
		name = mapped
	}
	for _, c := range s.Columns {
		if c == name {
			return c, true
		}
	}
	return "", false
}

var nonWord = regexp.MustCompile(`[^a-z0-9_]`)

// NormalizeName lower-cases, turns blanks and dashes into underscores and strips the rest.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_", "\t", "_").Replace(n)
	return nonWord.ReplaceAllString(n, "")
}

func merge(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
