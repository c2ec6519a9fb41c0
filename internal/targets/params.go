package targets

import "strconv"

// toParamString renders a scenario parameter value (decoded from JSON, so
// string/float64/bool/nil/slice/map) as the wire-level string both
// providers' form-encoded REST requests need.
func toParamString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	case nil:
		return ""
	default:
		return ""
	}
}
