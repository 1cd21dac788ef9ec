package loops

import (
	"errors"
	"testing"

	"github.com/mvp-joe/expconf/internal/placeholder"
	"github.com/mvp-joe/expconf/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for loop expansion:
// - NAME suffixes produce one upper-cased sibling per name with per-instance overrides
// - Without NAME the suffixes are indices
// - The template key and every FOR key are gone afterwards
// - Instances are independent copies
// - Nested templates are unrolled inside every outer instance
// - Discover records placeholders but does not look inside FOR
// - Mismatched lengths, bad NAME and non-mapping FOR are LoopErrors
// - A FOR at the document root is rejected
// - A NAME-only FOR block produces bare copies

func TestExpand_NamedInstances(t *testing.T) {
	m := tree.Mapping{"JOBS": tree.Mapping{
		"TEMPLATE": tree.Mapping{
			"FOR": tree.Mapping{"NAME": []any{"a", "b"}, "MEMBER": []any{"m1", "m2"}},
			"X":   1,
		},
	}}

	_, err := Run(m)
	require.NoError(t, err)

	assert.Equal(t, tree.Mapping{
		"TEMPLATE_A": tree.Mapping{"X": 1, "MEMBER": "m1"},
		"TEMPLATE_B": tree.Mapping{"X": 1, "MEMBER": "m2"},
	}, m["JOBS"])
}

func TestExpand_DefaultSuffixes(t *testing.T) {
	m := tree.Mapping{"JOBS": tree.Mapping{
		"TEMPLATE": tree.Mapping{
			"FOR": tree.Mapping{"MEMBER": []any{"m1", "m2"}},
			"X":   1,
		},
	}}

	_, err := Run(m)
	require.NoError(t, err)

	jobs := m["JOBS"].(tree.Mapping)
	assert.Len(t, jobs, 2)
	assert.Equal(t, "m1", jobs["TEMPLATE_0"].(tree.Mapping)["MEMBER"])
	assert.Equal(t, "m2", jobs["TEMPLATE_1"].(tree.Mapping)["MEMBER"])
	assert.Empty(t, Discover(m).Loops)
}

func TestExpand_InstancesAreIndependent(t *testing.T) {
	m := tree.Mapping{"JOBS": tree.Mapping{
		"T": tree.Mapping{
			"FOR":  tree.Mapping{"NAME": []any{"1", "2"}},
			"DEEP": tree.Mapping{"LIST": []any{"x"}},
		},
	}}

	_, err := Run(m)
	require.NoError(t, err)

	jobs := m["JOBS"].(tree.Mapping)
	jobs["T_1"].(tree.Mapping)["DEEP"].(tree.Mapping)["LIST"] = []any{"changed"}
	assert.Equal(t, []any{"x"}, jobs["T_2"].(tree.Mapping)["DEEP"].(tree.Mapping)["LIST"])
}

func TestExpand_Nested(t *testing.T) {
	m := tree.Mapping{"JOBS": tree.Mapping{
		"OUTER": tree.Mapping{
			"FOR": tree.Mapping{"NAME": []any{"A", "B"}, "CHUNK": []any{1, 2}},
			"STEPS": tree.Mapping{
				"INNER": tree.Mapping{
					"FOR":  tree.Mapping{"NAME": []any{"X", "Y"}},
					"KIND": "step",
				},
			},
		},
	}}

	_, err := Run(m)
	require.NoError(t, err)

	jobs := m["JOBS"].(tree.Mapping)
	require.Len(t, jobs, 2)
	for _, name := range []string{"OUTER_A", "OUTER_B"} {
		steps := jobs[name].(tree.Mapping)["STEPS"].(tree.Mapping)
		assert.Equal(t, tree.Mapping{
			"INNER_X": tree.Mapping{"KIND": "step"},
			"INNER_Y": tree.Mapping{"KIND": "step"},
		}, steps)
	}
	assert.Equal(t, 2, jobs["OUTER_B"].(tree.Mapping)["CHUNK"])
}

func TestDiscover_PlaceholdersAndForSkipped(t *testing.T) {
	m := tree.Mapping{
		"DEFAULT": tree.Mapping{"EXPID": "a000", "HPCARCH": "%PLATFORM%"},
		"JOBS": tree.Mapping{
			"T": tree.Mapping{
				"FOR":    tree.Mapping{"NAME": []any{"%HIDDEN%"}, "INNER": tree.Mapping{"FOR": tree.Mapping{}}},
				"SCRIPT": "echo %DEFAULT.EXPID%",
			},
		},
	}

	d := Discover(m)

	assert.Equal(t, [][]string{{"JOBS", "T"}}, d.Loops)
	assert.Equal(t, []placeholder.Pending{
		{Key: "DEFAULT.HPCARCH", Raw: "%PLATFORM%"},
		{Key: "JOBS.T.SCRIPT", Raw: "echo %DEFAULT.EXPID%"},
	}, d.Placeholders)
}

func TestExpand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		forValue any
	}{
		{"mismatched lengths", tree.Mapping{"A": []any{1, 2}, "B": []any{1}}},
		{"short NAME", tree.Mapping{"NAME": []any{"x"}, "A": []any{1, 2}}},
		{"scalar column", tree.Mapping{"A": "1 2"}},
		{"scalar NAME", tree.Mapping{"NAME": "x"}},
		{"not a mapping", []any{"x"}},
		{"empty", tree.Mapping{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tree.Mapping{"JOBS": tree.Mapping{"T": tree.Mapping{"FOR": tt.forValue}}}

			_, err := Run(m)
			require.Error(t, err)

			var loopErr *LoopError
			require.True(t, errors.As(err, &loopErr))
			assert.Equal(t, "JOBS.T", loopErr.Path)
		})
	}
}

func TestExpand_RootTemplateRejected(t *testing.T) {
	m := tree.Mapping{"FOR": tree.Mapping{"NAME": []any{"a"}}}

	_, err := Run(m)

	var loopErr *LoopError
	require.True(t, errors.As(err, &loopErr))
	assert.Equal(t, "<root>", loopErr.Path)
}

func TestExpand_NameOnly(t *testing.T) {
	m := tree.Mapping{"PLATFORMS": tree.Mapping{
		"HPC": tree.Mapping{"FOR": tree.Mapping{"NAME": []any{"A", 2}}, "TYPE": "slurm"},
	}}

	_, err := Run(m)
	require.NoError(t, err)

	assert.Equal(t, tree.Mapping{
		"HPC_A": tree.Mapping{"TYPE": "slurm"},
		"HPC_2": tree.Mapping{"TYPE": "slurm"},
	}, m["PLATFORMS"])
}
