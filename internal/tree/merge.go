package tree

import (
	"fmt"
	"sort"
)

// MergeError reports a sequence merged onto a value that is not a sequence.
type MergeError struct {
	Path     string
	Existing Kind
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("cannot append a sequence to %s value at %s", e.Existing, e.Path)
}

// Merge folds src into dst and returns dst.
//
//   - mapping values are merged key by key; a missing or non-mapping value in
//     dst is treated as an empty mapping
//   - sequence values are appended to the sequence already in dst
//   - anything else overwrites
//
// Keys only present in dst are left untouched. Values taken from src are deep
// copied so dst never aliases src.
func Merge(dst, src Mapping) (Mapping, error) {
	if dst == nil {
		dst = Mapping{}
	}
	if err := mergeInto(dst, src, ""); err != nil {
		return nil, err
	}
	return dst, nil
}

func mergeInto(dst, src Mapping, prefix string) error {
	for _, key := range SortedKeys(src) {
		incoming := src[key]
		path := joinPath(prefix, key)

		switch val := incoming.(type) {
		case map[string]any:
			existing, ok := dst[key].(map[string]any)
			if !ok {
				existing = Mapping{}
				dst[key] = existing
			}
			if err := mergeInto(existing, val, path); err != nil {
				return err
			}
		case []any:
			current, exists := dst[key]
			var seq []any
			if exists && current != nil {
				var ok bool
				if seq, ok = current.([]any); !ok {
					return &MergeError{Path: path, Existing: KindOf(current)}
				}
			}
			merged := make([]any, 0, len(seq)+len(val))
			merged = append(merged, seq...)
			for _, item := range val {
				merged = append(merged, Clone(item))
			}
			dst[key] = merged
		default:
			dst[key] = incoming
		}
	}
	return nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m Mapping) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
