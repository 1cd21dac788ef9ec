package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedKey is returned by NormalizeKeysStrict when a mapping key cannot
// be used as a configuration key (a null key, or a mapping or sequence used
// as a key) or when two keys collapse to the same upper-case form.
var ErrMalformedKey = errors.New("malformed configuration key")

// NormalizeKeys returns a copy of doc with every mapping key upper-cased, at
// every depth reachable through mappings. Sequence items and scalars are kept
// as they are.
//
// Normalization is lenient: a root that is not a mapping yields an empty
// mapping, and a sub-mapping with an unusable key is replaced by an empty
// mapping instead of failing the whole document.
func NormalizeKeys(doc any) Mapping {
	out, _ := normalizeRoot(doc, false)
	return out
}

// NormalizeKeysStrict is NormalizeKeys without the leniency: malformed keys
// are reported as ErrMalformedKey with the dotted path where they were found.
// A nil root is still an empty document.
func NormalizeKeysStrict(doc any) (Mapping, error) {
	return normalizeRoot(doc, true)
}

func normalizeRoot(doc any, strict bool) (Mapping, error) {
	if doc == nil {
		return Mapping{}, nil
	}
	entries, ok := mappingEntries(doc)
	if !ok {
		if strict {
			return nil, fmt.Errorf("%w: document root is a %T, not a mapping", ErrMalformedKey, doc)
		}
		return Mapping{}, nil
	}
	return normalizeMapping(entries, "", strict)
}

type entry struct {
	key   string
	value any
}

// mappingEntries turns the mapping shapes a decoder can hand us into a list
// of string-keyed entries sorted by original key. ok is false when v is not a
// mapping at all; a nil entry list with ok true means a key was unusable.
func mappingEntries(v any) (entries []entry, ok bool) {
	switch m := v.(type) {
	case map[string]any:
		entries = make([]entry, 0, len(m))
		for k, val := range m {
			entries = append(entries, entry{key: k, value: val})
		}
	case map[any]any:
		entries = make([]entry, 0, len(m))
		for k, val := range m {
			key, valid := scalarKey(k)
			if !valid {
				return nil, true
			}
			entries = append(entries, entry{key: key, value: val})
		}
	default:
		return nil, false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries, true
}

func scalarKey(k any) (string, bool) {
	switch key := k.(type) {
	case nil, map[string]any, map[any]any, []any:
		return "", false
	case string:
		return key, true
	default:
		return fmt.Sprint(key), true
	}
}

func normalizeMapping(entries []entry, path string, strict bool) (Mapping, error) {
	if entries == nil {
		if strict {
			return nil, fmt.Errorf("%w: unusable key under %q", ErrMalformedKey, displayPath(path))
		}
		return Mapping{}, nil
	}

	out := make(Mapping, len(entries))
	for _, e := range entries {
		upper := strings.ToUpper(e.key)
		if _, exists := out[upper]; exists {
			if strict {
				return nil, fmt.Errorf("%w: %q duplicates another key under %q", ErrMalformedKey, e.key, displayPath(path))
			}
			// An already upper-case spelling wins over its lower-case variants.
			if e.key != upper {
				continue
			}
		}
		child := joinPath(path, upper)
		if sub, isMap := mappingEntries(e.value); isMap {
			normalized, err := normalizeMapping(sub, child, strict)
			if err != nil {
				return nil, err
			}
			out[upper] = normalized
			continue
		}
		out[upper] = canonicalValue(e.value)
	}
	return out, nil
}

// canonicalValue converts decoder-specific mapping types found inside
// sequences to map[string]any without touching key case.
func canonicalValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalValue(item)
		}
		return out
	case map[string]any:
		out := make(Mapping, len(val))
		for k, item := range val {
			out[k] = canonicalValue(item)
		}
		return out
	case map[any]any:
		out := make(Mapping, len(val))
		for k, item := range val {
			key, ok := scalarKey(k)
			if !ok {
				continue
			}
			out[key] = canonicalValue(item)
		}
		return out
	default:
		return v
	}
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
