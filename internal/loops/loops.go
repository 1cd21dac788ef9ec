// Package loops unrolls FOR blocks.
//
// A section holding a FOR mapping is a template:
//
//	JOBS:
//	  SIM:
//	    FILE: sim.sh
//	    FOR:
//	      NAME: [a, b]
//	      MEMBER: [m1, m2]
//
// becomes two sibling sections SIM_A and SIM_B, each a copy of SIM without
// FOR and with MEMBER set to the matching element. Suffixes are upper-cased
// like every other key. Without NAME the suffixes are the indices 0..N-1.
//
// Expansion is two-phase: Discover walks the tree without touching it and
// returns the template locations, then Expand rewrites the tree one location
// at a time, deepest first, so a nested template is already unrolled when the
// section around it is copied.
package loops

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mvp-joe/expconf/internal/placeholder"
	"github.com/mvp-joe/expconf/internal/tree"
)

const (
	// ForKey marks a templated section.
	ForKey = "FOR"
	// NameKey lists the suffixes of the generated sections.
	NameKey = "NAME"
)

// LoopError reports a FOR block that cannot be unrolled.
type LoopError struct {
	Path   string
	Reason string
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("invalid FOR block at %s: %s", e.Path, e.Reason)
}

// Discovery is the result of a read-only pass over a tree.
type Discovery struct {
	// Loops holds the path of every section containing a FOR key, in
	// traversal order.
	Loops [][]string
	// Placeholders holds every string value carrying a %NAME% reference.
	Placeholders []placeholder.Pending
}

// Discover walks m in sorted key order. The FOR value itself is structure
// and is not searched for further loops.
func Discover(m tree.Mapping) Discovery {
	var d Discovery
	if _, ok := m[ForKey]; ok {
		d.Loops = append(d.Loops, []string{})
	}
	tree.Walk(m, func(segments []string, value any) bool {
		switch v := value.(type) {
		case map[string]any:
			if segments[len(segments)-1] == ForKey {
				return false
			}
			if _, ok := v[ForKey]; ok {
				d.Loops = append(d.Loops, segments)
			}
		default:
			d.Placeholders = append(d.Placeholders, placeholder.PendingIn(tree.JoinPath(segments), v)...)
		}
		return true
	})
	return d
}

// Expand unrolls every template at paths in m.
func Expand(m tree.Mapping, paths [][]string) error {
	ordered := make([][]string, len(paths))
	copy(ordered, paths)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) > len(ordered[j])
	})

	for _, path := range ordered {
		if err := expandOne(m, path); err != nil {
			return err
		}
	}
	return nil
}

// Run discovers and expands in one call and returns what was discovered.
func Run(m tree.Mapping) (Discovery, error) {
	d := Discover(m)
	if err := Expand(m, d.Loops); err != nil {
		return d, err
	}
	return d, nil
}

func expandOne(m tree.Mapping, path []string) error {
	where := tree.JoinPath(path)
	if len(path) == 0 {
		return &LoopError{Path: "<root>", Reason: "a document root cannot be a template"}
	}

	parentValue, ok := tree.Get(m, path[:len(path)-1])
	if !ok {
		return &LoopError{Path: where, Reason: "section disappeared before expansion"}
	}
	parent, ok := parentValue.(map[string]any)
	if !ok {
		return &LoopError{Path: where, Reason: "parent is not a mapping"}
	}
	name := path[len(path)-1]
	template, ok := parent[name].(map[string]any)
	if !ok {
		return &LoopError{Path: where, Reason: "section is not a mapping"}
	}

	forBlock, ok := template[ForKey].(map[string]any)
	if !ok {
		return &LoopError{Path: where, Reason: fmt.Sprintf("FOR must be a mapping, got %s", tree.KindOf(template[ForKey]))}
	}
	suffixes, columns, err := parseFor(forBlock, where)
	if err != nil {
		return err
	}

	body := make(tree.Mapping, len(template))
	for k, v := range template {
		if k != ForKey {
			body[k] = v
		}
	}

	delete(parent, name)
	for i, suffix := range suffixes {
		instance := tree.CloneMapping(body)
		for key, values := range columns {
			instance[key] = tree.Clone(values[i])
		}
		parent[name+"_"+suffix] = instance
	}
	return nil
}

// parseFor validates a FOR mapping and returns the section suffixes and the
// per-instance override columns, all of the same length.
func parseFor(forBlock tree.Mapping, where string) ([]string, map[string][]any, error) {
	columns := make(map[string][]any, len(forBlock))
	n := -1
	for _, key := range tree.SortedKeys(forBlock) {
		if key == NameKey {
			continue
		}
		values, ok := forBlock[key].([]any)
		if !ok {
			return nil, nil, &LoopError{Path: where, Reason: fmt.Sprintf("FOR.%s must be a sequence, got %s", key, tree.KindOf(forBlock[key]))}
		}
		if n >= 0 && len(values) != n {
			return nil, nil, &LoopError{Path: where, Reason: fmt.Sprintf("FOR.%s has %d values, expected %d", key, len(values), n)}
		}
		n = len(values)
		columns[key] = values
	}

	raw, hasNames := forBlock[NameKey]
	if !hasNames {
		if n < 0 {
			return nil, nil, &LoopError{Path: where, Reason: "FOR needs NAME or at least one value sequence"}
		}
		suffixes := make([]string, n)
		for i := range suffixes {
			suffixes[i] = strconv.Itoa(i)
		}
		return suffixes, columns, nil
	}

	names, ok := raw.([]any)
	if !ok {
		return nil, nil, &LoopError{Path: where, Reason: fmt.Sprintf("FOR.NAME must be a sequence, got %s", tree.KindOf(raw))}
	}
	if n >= 0 && len(names) != n {
		return nil, nil, &LoopError{Path: where, Reason: fmt.Sprintf("FOR.NAME has %d values, expected %d", len(names), n)}
	}
	suffixes := make([]string, len(names))
	for i, v := range names {
		suffixes[i] = strings.ToUpper(tree.String(v))
	}
	return suffixes, columns, nil
}
