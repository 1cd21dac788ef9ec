// Package placeholder resolves %NAME% references inside configuration values.
//
// A reference names another value of the same tree, either a top-level key
// (%EXPID%) or a dotted path (%EXPERIMENT.DATELIST%). Resolution is a bounded
// fixed-point iteration: references whose target still holds references are
// retried on the next pass, and whatever cannot be resolved within
// MaxPasses is left in place as literal text.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/expconf/internal/tree"
)

var referencePattern = regexp.MustCompile(`%([a-zA-Z_][a-zA-Z0-9_.\-]*)%`)

// Pending is a value that still carries at least one reference.
type Pending struct {
	// Key is the dotted path of the value.
	Key string
	// Raw is the text holding the reference.
	Raw string
}

// Contains reports whether s holds a reference.
func Contains(s string) bool {
	return referencePattern.MatchString(s)
}

// Names returns the distinct reference names in s, in order of appearance,
// as written (without the surrounding %).
func Names(s string) []string {
	matches := referencePattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		key := strings.ToUpper(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, m[1])
	}
	return names
}

// PendingIn returns the pending entries for value v stored at key. Strings
// are checked directly; sequences are searched item by item.
func PendingIn(key string, v any) []Pending {
	var out []Pending
	for _, s := range referencingStrings(v) {
		out = append(out, Pending{Key: key, Raw: s})
	}
	return out
}

func referencingStrings(v any) []string {
	switch val := v.(type) {
	case string:
		if Contains(val) {
			return []string{val}
		}
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, referencingStrings(item)...)
		}
		return out
	}
	return nil
}

// Collect returns every pending entry in m, in sorted traversal order.
func Collect(m tree.Mapping) []Pending {
	var out []Pending
	tree.Walk(m, func(segments []string, value any) bool {
		if _, isMap := value.(map[string]any); !isMap {
			out = append(out, PendingIn(tree.JoinPath(segments), value)...)
		}
		return true
	})
	return out
}

// Dedupe drops repeated (Key, Raw) pairs, keeping first occurrences.
func Dedupe(pending []Pending) []Pending {
	seen := make(map[Pending]bool, len(pending))
	out := make([]Pending, 0, len(pending))
	for _, p := range pending {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
