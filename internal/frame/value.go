package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// IsNull reports database-NULL semantics: nil, NaN, ±Inf and invalid null
// types. Text is never NULL here; a VARCHAR holding "None" is data.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x) || math.IsInf(x, 0)
	case float32:
		f := float64(x)
		return math.IsNaN(f) || math.IsInf(f, 0)
	case null.Float:
		return !x.Valid || math.IsNaN(x.Float64) || math.IsInf(x.Float64, 0)
	case null.String:
		return !x.Valid
	case null.Int:
		return !x.Valid
	case null.Time:
		return !x.Valid
	case []byte:
		return x == nil
	}
	return false
}

// IsNullText reports the spellings vendor CSV drops use for a missing value.
func IsNullText(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nan", "null", "none", "nat", "-inf", "inf", "+inf":
		return true
	}
	return false
}

// Normalize maps NULL values to nil and unwraps null/[]byte values so
// the result can be bound directly as a driver argument.
func Normalize(v any) any {
	if IsNull(v) {
		return nil
	}
	switch x := v.(type) {
	case []byte:
		return string(x)
	case float32:
		return float64(x)
	case null.Float:
		return x.Float64
	case null.String:
		return x.String
	case null.Int:
		return x.Int64
	case null.Time:
		return x.Time
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	}
	return v
}

// ToFloat converts numeric-looking cells; empty strings and NULLs are not numbers.
func ToFloat(v any) (float64, bool) {
	if IsNull(v) {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case decimal.Decimal:
		f, _ := x.Float64()
		return f, true
	case null.Float:
		return x.Float64, true
	case null.Int:
		return float64(x.Int64), true
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	case null.String:
		return parseFloat(x.String)
	}
	return 0, false
}

func parseFloat(s string) (float64, bool) {
	if IsNullText(s) {
		return 0, false
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToString renders a cell as text. Whole floats print without a fraction so a
// numeric code column read as float64 still matches its string form.
func ToString(v any) (string, bool) {
	if IsNull(v) {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case null.String:
		return x.String, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case null.Float:
		return strconv.FormatFloat(x.Float64, 'f', -1, 64), true
	case null.Int:
		return strconv.FormatInt(x.Int64, 10), true
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02"), true
		}
		return x.Format("2006-01-02 15:04:05"), true
	case null.Time:
		return ToString(x.Time)
	case decimal.Decimal:
		return x.String(), true
	}
	return fmt.Sprint(v), true
}
