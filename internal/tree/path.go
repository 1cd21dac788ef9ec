package tree

import "strings"

// Separator joins the segments of a dotted path such as JOBS.SIM.FILE.
const Separator = "."

// SplitPath splits a dotted path into segments. An empty path has no segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// JoinPath joins segments into a dotted path.
func JoinPath(segments []string) string {
	return strings.Join(segments, Separator)
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Separator + key
}

// Get walks m one segment at a time and returns the value found at the end.
func Get(m Mapping, segments []string) (any, bool) {
	var current any = m
	for _, seg := range segments {
		next, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = next[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set stores value at segments, creating intermediate mappings as needed and
// replacing non-mapping values that are in the way.
func Set(m Mapping, segments []string, value any) {
	if m == nil || len(segments) == 0 {
		return
	}
	current := m
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = Mapping{}
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// Delete removes the value at segments and returns it.
func Delete(m Mapping, segments []string) (any, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	parent, ok := Get(m, segments[:len(segments)-1])
	if !ok {
		return nil, false
	}
	pm, ok := parent.(map[string]any)
	if !ok {
		return nil, false
	}
	key := segments[len(segments)-1]
	v, ok := pm[key]
	if ok {
		delete(pm, key)
	}
	return v, ok
}

// Flatten returns the leaves of m keyed by dotted path. Empty mappings are
// kept as leaves so that no key disappears.
func Flatten(m Mapping) map[string]any {
	out := make(map[string]any)
	flattenInto(m, "", out)
	return out
}

func flattenInto(m Mapping, prefix string, out map[string]any) {
	for k, v := range m {
		key := joinPath(prefix, k)
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			flattenInto(sub, key, out)
			continue
		}
		out[key] = v
	}
}

// Unflatten rebuilds a nested mapping from dotted keys.
func Unflatten(flat map[string]any) Mapping {
	out := Mapping{}
	for k, v := range flat {
		Set(out, SplitPath(k), v)
	}
	return out
}

// Walk visits every value reachable from m through mappings, depth first in
// sorted key order. fn receives the segments of each value; returning false
// skips descending into that value.
func Walk(m Mapping, fn func(segments []string, value any) bool) {
	walk(m, nil, fn)
}

func walk(m Mapping, prefix []string, fn func([]string, any) bool) {
	for _, k := range SortedKeys(m) {
		segs := append(append(make([]string, 0, len(prefix)+1), prefix...), k)
		v := m[k]
		if !fn(segs, v) {
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			walk(sub, segs, fn)
		}
	}
}
