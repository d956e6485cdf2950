// Package timeline turns captured X GraphQL timeline payloads into posts.
//
// The payload shapes are undocumented and change without notice, so every
// read goes through Lookup, which reports absence instead of failing.
package timeline

// Lookup walks root by a path of string keys and int indices.
// It returns false if any segment is missing, has the wrong container
// kind, is out of range, or if the final value is JSON null.
func Lookup(root any, path ...any) (any, bool) {
	cur := root
	for _, seg := range path {
		if cur == nil {
			return nil, false
		}
		switch key := seg.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case int:
			s, ok := cur.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil, false
			}
			cur = s[key]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Get returns the value at path, or def when it is absent.
func Get(root any, def any, path ...any) any {
	if v, ok := Lookup(root, path...); ok {
		return v
	}
	return def
}

// Map returns the mapping at path.
func Map(root any, path ...any) (map[string]any, bool) {
	v, ok := Lookup(root, path...)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Slice returns the sequence at path.
func Slice(root any, path ...any) ([]any, bool) {
	v, ok := Lookup(root, path...)
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// String returns the string at path.
func String(root any, path ...any) (string, bool) {
	v, ok := Lookup(root, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
