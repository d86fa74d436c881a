// Package attrs works with slog-style key/value attribute lists so one list
// can feed both a log line and an audit event.
package attrs

// List is formatted as [key1, value1, key2, value2, ...].
type List []any

// With returns a copy of l with kv appended; l is never modified.
func (l List) With(kv ...any) List {
	out := make(List, 0, len(l)+len(kv))
	out = append(out, l...)
	return append(out, kv...)
}

// String returns the string value of the last occurrence of key, or "" if the
// key is missing or its value is not a string.
func (l List) String(key string) string {
	for i := len(l) - 2; i >= 0; i -= 2 {
		if k, ok := l[i].(string); ok && k == key {
			if v, ok := l[i+1].(string); ok {
				return v
			}
			return ""
		}
	}
	return ""
}
