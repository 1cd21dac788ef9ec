package placeholder

import (
	"testing"

	"github.com/mvp-joe/expconf/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Resolve:
// - Simple reference converges within two passes
// - Self reference stops at MaxPasses and stays literal
// - Two-step chains (A -> B -> C) resolve across passes
// - Dotted references walk nested mappings in short mode
// - References are matched case-insensitively
// - Substitution is global: copies of the same text elsewhere are rewritten
// - Stale keys (templates already unrolled) still drive substitution
// - Strings inside sequences are rewritten
// - Whole-value references to sequences copy the sequence
// - Missing and empty targets stay literal
// - Long mode resolves against dotted flat keys
// - The pending slice passed in is left untouched
// - Mode detection samples every third key

func TestResolve_SimpleReference(t *testing.T) {
	m := tree.Mapping{"A": "%B%", "B": "value"}

	res := Resolve(m, Collect(m))

	assert.Equal(t, tree.Mapping{"A": "value", "B": "value"}, m)
	assert.LessOrEqual(t, res.Passes, 2)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, Short, res.Mode)
}

func TestResolve_SelfReferenceTerminates(t *testing.T) {
	m := tree.Mapping{"A": "%A%"}

	res := Resolve(m, Collect(m))

	assert.Equal(t, "%A%", m["A"])
	assert.Equal(t, MaxPasses, res.Passes)
	assert.Equal(t, []Pending{{Key: "A", Raw: "%A%"}}, res.Unresolved)
}

func TestResolve_MutualCycleTerminates(t *testing.T) {
	m := tree.Mapping{"A": "%B%", "B": "%A%"}

	res := Resolve(m, Collect(m))

	assert.LessOrEqual(t, res.Passes, MaxPasses)
	assert.NotEmpty(t, res.Unresolved)
}

func TestResolve_Chain(t *testing.T) {
	m := tree.Mapping{
		"EXPERIMENT": tree.Mapping{"OUT": "/data/%EXPID%/out"},
		"EXPID":      "%PREFIX%01",
		"PREFIX":     "a0",
	}

	res := Resolve(m, Collect(m))

	assert.Equal(t, "/data/a001/out", m["EXPERIMENT"].(tree.Mapping)["OUT"])
	assert.Equal(t, "a001", m["EXPID"])
	assert.Empty(t, res.Unresolved)
}

func TestResolve_DottedAndCaseInsensitive(t *testing.T) {
	m := tree.Mapping{
		"JOBS":       tree.Mapping{"SIM": tree.Mapping{"SCRIPT": "run %experiment.Model%-%Experiment.MODEL%"}},
		"EXPERIMENT": tree.Mapping{"MODEL": "ifs"},
	}

	Resolve(m, Collect(m))

	assert.Equal(t, "run ifs-ifs", m["JOBS"].(tree.Mapping)["SIM"].(tree.Mapping)["SCRIPT"])
}

func TestResolve_GlobalAndStaleKeys(t *testing.T) {
	m := tree.Mapping{
		"JOBS": tree.Mapping{
			"SIM_A": tree.Mapping{"DIR": "%ROOT%/a"},
			"SIM_B": tree.Mapping{"DIR": "%ROOT%/a"},
		},
		"ROOT": "/scratch",
	}
	// Recorded before the template JOBS.SIM was unrolled.
	pending := []Pending{{Key: "JOBS.SIM.DIR", Raw: "%ROOT%/a"}}

	res := Resolve(m, pending)

	jobs := m["JOBS"].(tree.Mapping)
	assert.Equal(t, "/scratch/a", jobs["SIM_A"].(tree.Mapping)["DIR"])
	assert.Equal(t, "/scratch/a", jobs["SIM_B"].(tree.Mapping)["DIR"])
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, []Pending{{Key: "JOBS.SIM.DIR", Raw: "%ROOT%/a"}}, pending)
}

func TestResolve_Sequences(t *testing.T) {
	m := tree.Mapping{
		"LIST":    []any{"%NAME%-1", "plain"},
		"NAME":    "x",
		"MEMBERS": []any{"fc0", "fc1"},
		"COPY":    "%MEMBERS%",
	}

	Resolve(m, Collect(m))

	assert.Equal(t, []any{"x-1", "plain"}, m["LIST"])
	assert.Equal(t, []any{"fc0", "fc1"}, m["COPY"])
}

func TestResolve_MissingAndEmptyStayLiteral(t *testing.T) {
	m := tree.Mapping{"A": "%NOPE%", "B": "%EMPTY%", "EMPTY": ""}

	res := Resolve(m, Collect(m))

	assert.Equal(t, "%NOPE%", m["A"])
	assert.Equal(t, "%EMPTY%", m["B"])
	assert.Len(t, res.Unresolved, 2)
}

func TestResolve_LongMode(t *testing.T) {
	m := tree.Mapping{
		"A.B":   "%C.D%/x",
		"C.D":   "%E.F%",
		"E.F":   "root",
		"G.H":   "%MISSING%",
		"I.J.K": 3,
	}

	res := Resolve(m, []Pending{
		{Key: "A.B", Raw: "%C.D%/x"},
		{Key: "C.D", Raw: "%E.F%"},
		{Key: "G.H", Raw: "%MISSING%"},
	})

	require.Equal(t, Long, res.Mode)
	assert.Equal(t, "root/x", m["A.B"])
	assert.Equal(t, "root", m["C.D"])
	assert.Equal(t, "%MISSING%", m["G.H"])
	assert.Equal(t, []Pending{{Key: "G.H", Raw: "%MISSING%"}}, res.Unresolved)
}

func TestDetectMode(t *testing.T) {
	assert.Equal(t, Short, DetectMode(tree.Mapping{}))
	assert.Equal(t, Short, DetectMode(tree.Mapping{"JOBS": 1, "EXPERIMENT": 2}))
	assert.Equal(t, Long, DetectMode(tree.Mapping{"A.B": 1, "C.D": 2, "E": 3, "F.G": 4}))
	// Samples A.X and D: one of two dotted is not a majority.
	assert.Equal(t, Short, DetectMode(tree.Mapping{"A.X": 1, "B.X": 2, "C.X": 3, "D": 4}))
}

func TestNamesAndPendingIn(t *testing.T) {
	assert.Equal(t, []string{"A", "b.c"}, Names("%A% and %b.c% and %a%"))
	assert.Nil(t, Names("50% done"))

	assert.Equal(t, []Pending{{Key: "K", Raw: "%X%"}}, PendingIn("K", []any{"%X%", 1, "y"}))
	assert.Nil(t, PendingIn("K", 42))
}
