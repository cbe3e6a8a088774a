package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// orderDoc is the typed parsing layer over an externally supplied, loosely
// typed order document. Producers do not share a schema, so every field is
// resolved through an ordered alias precedence list; the lists live next to
// the normalizer code that consumes them.
//
// Numeric coercion is tolerant: a value that cannot be parsed counts as
// absent or zero. A malformed price must never block printing, it only risks
// an inaccurate total.
type orderDoc map[string]interface{}

// str returns the first non-empty string among the aliased keys.
func (d orderDoc) str(aliases ...string) string {
	for _, key := range aliases {
		if v, ok := d[key]; ok {
			if s := toString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// num returns the first parseable number among the aliased keys.
func (d orderDoc) num(aliases ...string) (float64, bool) {
	for _, key := range aliases {
		if v, ok := d[key]; ok {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// positive returns the first strictly positive number among the aliased keys.
func (d orderDoc) positive(aliases ...string) float64 {
	for _, key := range aliases {
		if v, ok := d[key]; ok {
			if f, ok := toFloat(v); ok && f > 0 {
				return f
			}
		}
	}
	return 0
}

// child returns the first nested object among the aliased keys.
func (d orderDoc) child(aliases ...string) orderDoc {
	for _, key := range aliases {
		if m, ok := d[key].(map[string]interface{}); ok {
			return orderDoc(m)
		}
	}
	return nil
}

// list returns the first array among the aliased keys.
func (d orderDoc) list(aliases ...string) []interface{} {
	for _, key := range aliases {
		if l, ok := d[key].([]interface{}); ok {
			return l
		}
	}
	return nil
}

// path resolves a dotted path ("customer.note") to a string, empty when any
// segment is missing.
func (d orderDoc) path(p string) string {
	segments := strings.Split(p, ".")
	cur := d
	for i, seg := range segments {
		if i == len(segments)-1 {
			return toString(cur[seg])
		}
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			return ""
		}
		cur = orderDoc(next)
	}
	return ""
}

// entry converts a list element to an orderDoc, nil for non-objects.
func entry(v interface{}) orderDoc {
	if m, ok := v.(map[string]interface{}); ok {
		return orderDoc(m)
	}
	return nil
}

// toFloat coerces JSON scalars to a number. Strings are parsed after
// trimming currency noise and normalizing a decimal comma.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimSuffix(s, "€")
		s = strings.TrimSpace(strings.TrimSuffix(s, "EUR"))
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// toString coerces scalars to a trimmed string; objects and arrays yield "".
func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

// deepFindPositive walks nested maps and arrays depth-first and returns the
// first strictly positive number stored under a key matching re. Last-resort
// recovery for values buried in producer-specific containers. Keys are
// visited in sorted order so the walk is deterministic.
func deepFindPositive(v interface{}, re *regexp.Regexp) float64 {
	switch node := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(node))
		for key := range node {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if re.MatchString(key) {
				if f, ok := toFloat(node[key]); ok && f > 0 {
					return f
				}
			}
		}
		for _, key := range keys {
			if f := deepFindPositive(node[key], re); f > 0 {
				return f
			}
		}
	case []interface{}:
		for _, val := range node {
			if f := deepFindPositive(val, re); f > 0 {
				return f
			}
		}
	}
	return 0
}
