package warehouse

import (
	"strconv"
	"strings"
)

// Administrative commands return loosely typed rows with no guaranteed absence
// of nulls. All normalization to the entity model happens here, so absence
// never propagates past the adapter: missing strings become "", missing
// numbers become 0, missing booleans become false.

func rowString(row map[string]interface{}, col string) string {
	switch v := row[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func rowInt(row map[string]interface{}, col string) int {
	switch v := row[col].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	case []byte:
		n, err := strconv.Atoi(strings.TrimSpace(string(v)))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func rowBool(row map[string]interface{}, col string) bool {
	switch v := row[col].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || strings.EqualFold(v, "on")
	case []byte:
		s := string(v)
		return strings.EqualFold(s, "true") || strings.EqualFold(s, "on")
	default:
		return false
	}
}

// quoteIdent double-quotes an identifier for interpolation into an
// administrative command. SHOW/DESCRIBE do not accept bind parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
