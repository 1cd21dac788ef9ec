package placeholder

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/expconf/internal/tree"
)

// MaxPasses bounds the fixed-point iteration.
const MaxPasses = 25

// Mode is the addressing grammar of the tree being resolved.
type Mode int

const (
	// Short addresses a nested tree: %A.B% walks mapping A then key B.
	Short Mode = iota
	// Long addresses a flat tree whose keys are already dotted paths:
	// %A.B% is looked up as the single key "A.B".
	Long
)

func (m Mode) String() string {
	if m == Long {
		return "long"
	}
	return "short"
}

// DetectMode samples every third top-level key of m (in sorted order) and
// picks Long when most sampled keys contain a dot.
func DetectMode(m tree.Mapping) Mode {
	keys := tree.SortedKeys(m)
	sampled, dotted := 0, 0
	for i := 0; i < len(keys); i += 3 {
		sampled++
		if strings.Contains(keys[i], tree.Separator) {
			dotted++
		}
	}
	if sampled > 0 && dotted*2 > sampled {
		return Long
	}
	return Short
}

// Result describes one resolution run.
type Result struct {
	Mode Mode
	// Passes is the number of passes executed.
	Passes int
	// Unresolved holds the entries still pending when the run stopped.
	Unresolved []Pending
}

// Resolve substitutes references in m, in place, starting from pending.
// It never fails: references that cannot be resolved within MaxPasses stay
// as literal text and are reported in Result.Unresolved. The pending slice
// passed in is not modified.
func Resolve(m tree.Mapping, pending []Pending) Result {
	r := &resolver{
		tree:     m,
		mode:     DetectMode(m),
		patterns: make(map[string]*regexp.Regexp),
	}

	work := Dedupe(pending)
	passes := 0
	for len(work) > 0 && passes < MaxPasses {
		passes++
		var next []Pending
		for _, p := range work {
			if r.mode == Long {
				next = append(next, r.resolveLong(p)...)
			} else {
				next = append(next, r.resolveShort(p)...)
			}
		}
		work = Dedupe(next)
	}

	return Result{Mode: r.mode, Passes: passes, Unresolved: work}
}

type resolver struct {
	tree     tree.Mapping
	mode     Mode
	patterns map[string]*regexp.Regexp
}

// pattern matches %name% case-insensitively.
func (r *resolver) pattern(name string) *regexp.Regexp {
	key := strings.ToUpper(name)
	if re, ok := r.patterns[key]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)%` + regexp.QuoteMeta(name) + `%`)
	r.patterns[key] = re
	return re
}

// lookup finds the value a reference points to. Empty values and values that
// refer straight back to the same name do not count as found.
func (r *resolver) lookup(name string) (any, bool) {
	upper := strings.ToUpper(name)
	var (
		v  any
		ok bool
	)
	if r.mode == Long {
		v, ok = r.tree[upper]
	} else {
		v, ok = tree.Get(r.tree, tree.SplitPath(upper))
	}
	if !ok || tree.IsEmpty(v) {
		return nil, false
	}
	if s, isString := v.(string); isString && r.pattern(name).MatchString(s) {
		return nil, false
	}
	return v, true
}

// resolveShort substitutes every resolvable reference of p across the whole
// tree, then requeues whatever references remain at p.Key.
func (r *resolver) resolveShort(p Pending) []Pending {
	var text any = p.Raw
	for _, name := range Names(p.Raw) {
		v, ok := r.lookup(name)
		if !ok {
			continue
		}
		re := r.pattern(name)
		replaceEverywhere(r.tree, re, v)
		if s, isString := text.(string); isString {
			text = substitute(re, s, v)
		}
	}

	if current, ok := tree.Get(r.tree, tree.SplitPath(p.Key)); ok {
		if s, isString := current.(string); isString {
			if Contains(s) {
				return []Pending{{Key: p.Key, Raw: s}}
			}
			return nil
		}
		if _, isSeq := current.([]any); isSeq {
			if s, ok := text.(string); ok && Contains(s) {
				return []Pending{{Key: p.Key, Raw: s}}
			}
			return nil
		}
		return nil
	}

	// The key no longer exists (a template that has been unrolled); keep
	// chasing its references so copies elsewhere still get substituted.
	if s, ok := text.(string); ok && Contains(s) {
		return []Pending{{Key: p.Key, Raw: s}}
	}
	return nil
}

// resolveLong substitutes references of the value stored under p.Key in a
// flat tree. Only that key is rewritten.
func (r *resolver) resolveLong(p Pending) []Pending {
	current, ok := r.tree[p.Key]
	if !ok || tree.IsEmpty(current) {
		return []Pending{p}
	}
	s, isString := current.(string)
	if !isString {
		return nil
	}
	if !Contains(s) {
		return nil
	}

	var result any = s
	for _, name := range Names(s) {
		v, ok := r.lookup(name)
		if !ok {
			continue
		}
		str, isString := result.(string)
		if !isString {
			break
		}
		result = substitute(r.pattern(name), str, v)
	}
	r.tree[p.Key] = result

	if str, isString := result.(string); isString && Contains(str) {
		return []Pending{{Key: p.Key, Raw: str}}
	}
	return nil
}

// substitute replaces the reference in s. A string that is nothing but the
// reference takes the target value itself when it is a sequence or mapping.
func substitute(re *regexp.Regexp, s string, v any) any {
	if loc := re.FindStringIndex(s); loc != nil && loc[0] == 0 && loc[1] == len(s) {
		if kind := tree.KindOf(v); kind == tree.KindSequence || kind == tree.KindMapping {
			return tree.Clone(v)
		}
	}
	return re.ReplaceAllLiteralString(s, tree.String(v))
}

// replaceEverywhere substitutes the reference in every string of m,
// including strings inside sequences.
func replaceEverywhere(m tree.Mapping, re *regexp.Regexp, v any) {
	for k, val := range m {
		m[k] = replaceValue(val, re, v)
	}
}

func replaceValue(val any, re *regexp.Regexp, v any) any {
	switch cur := val.(type) {
	case string:
		if !re.MatchString(cur) {
			return cur
		}
		return substitute(re, cur, v)
	case map[string]any:
		replaceEverywhere(cur, re, v)
		return cur
	case []any:
		for i, item := range cur {
			cur[i] = replaceValue(item, re, v)
		}
		return cur
	default:
		return val
	}
}
