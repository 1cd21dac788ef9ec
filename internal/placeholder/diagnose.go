package placeholder

import (
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/mvp-joe/expconf/internal/tree"
)

// Issue is a reference left in a resolved tree.
type Issue struct {
	// Key is the dotted path of the value holding the reference.
	Key string
	// Name is the upper-cased reference name.
	Name string
	// Exists reports whether Name addresses a value in the tree. A reference
	// to an existing value that is still unresolved is part of a cycle or
	// points at an empty value.
	Exists bool
}

// Report lists the references left in a tree and the cycles among them.
type Report struct {
	Issues []Issue
	// Cycles holds each set of keys referring to each other, sorted.
	Cycles [][]string
}

// OK reports whether nothing was left unresolved.
func (r Report) OK() bool {
	return len(r.Issues) == 0
}

// Diagnose inspects a nested tree after resolution.
func Diagnose(m tree.Mapping) Report {
	var report Report
	g := graph.New(graph.StringHash, graph.Directed())
	selfLoops := make(map[string]bool)

	for _, p := range Collect(m) {
		for _, name := range Names(p.Raw) {
			upper := strings.ToUpper(name)
			_, exists := tree.Get(m, tree.SplitPath(upper))
			report.Issues = append(report.Issues, Issue{Key: p.Key, Name: upper, Exists: exists})
			if !exists {
				continue
			}
			if upper == p.Key {
				selfLoops[upper] = true
				continue
			}
			addVertex(g, p.Key)
			addVertex(g, upper)
			_ = g.AddEdge(p.Key, upper)
		}
	}

	components, err := graph.StronglyConnectedComponents(g)
	if err == nil {
		for _, c := range components {
			if len(c) > 1 {
				sort.Strings(c)
				report.Cycles = append(report.Cycles, c)
			}
		}
	}
	for key := range selfLoops {
		report.Cycles = append(report.Cycles, []string{key})
	}
	sort.Slice(report.Cycles, func(i, j int) bool {
		return report.Cycles[i][0] < report.Cycles[j][0]
	})
	return report
}

func addVertex(g graph.Graph[string, string], v string) {
	_ = g.AddVertex(v)
}
