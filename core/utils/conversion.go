package utils

import (
	"fmt"
	"strconv"
)

// ToString converts a loose-typed remote attribute value to string.
// Remote record attributes arrive as map[string]any from JSON, so values
// may be strings, numbers, or byte slices depending on the vendor schema.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a fractional part.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
