// Package tree holds the in-memory model of a configuration document and the
// pure transformations applied to it before and during merging.
//
// A document is a Mapping (map[string]any). Values are one of three shapes:
//
//	Mapping   map[string]any, keys upper-cased
//	Sequence  []any
//	Scalar    string, bool, int, int64, float64 (or nil)
//
// Kind gives callers an explicit view of that union so they can switch on the
// shape instead of type-asserting throughout the pipeline.
package tree

import (
	"fmt"
	"strings"
)

// Mapping is a configuration mapping with upper-cased keys.
type Mapping = map[string]any

// Sequence is an ordered list of configuration values.
type Sequence = []any

// Kind identifies the shape of a configuration value.
type Kind int

const (
	// KindNull is the absent value (a YAML "~" or a missing key).
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindOf reports the shape of v. Anything that is neither a mapping nor a
// sequence is a scalar.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case map[string]any:
		return KindMapping
	case []any:
		return KindSequence
	default:
		return KindScalar
	}
}

// IsEmpty reports whether v is missing, an empty string, an empty mapping or
// an empty sequence. Zero numbers and false are not empty.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// Clone returns a deep copy of v. Scalars are returned as is.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMapping(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// CloneMapping returns a deep copy of m. A nil mapping clones to an empty one.
func CloneMapping(m Mapping) Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Equal reports whether a and b hold the same tree.
func Equal(a, b any) bool {
	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, av := range va {
			bv, ok := vb[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// String renders a scalar the way it is substituted into text. Sequences are
// joined with ", " and mappings use Go's map formatting.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = String(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}
