package tree

import (
	"fmt"
	"strings"
)

// Job field names rewritten by NormalizeJobs.
const (
	JobsKey             = "JOBS"
	DependenciesKey     = "DEPENDENCIES"
	CustomDirectivesKey = "CUSTOM_DIRECTIVES"
	FileKey             = "FILE"
	AdditionalFilesKey  = "ADDITIONAL_FILES"
)

// NormalizeJobs rewrites the irregular shapes users write under JOBS into
// their canonical form, in place:
//
//   - DEPENDENCIES "A B-1" becomes {A: {}, B-1: {}}
//   - a structured CUSTOM_DIRECTIVES is rendered to text
//   - FILE "a.sh,b.sh" becomes FILE "a.sh" plus ADDITIONAL_FILES ["b.sh"]
//
// Fields a job does not set are not added, so a document that only tweaks
// other job fields cannot clobber FILE or DEPENDENCIES during merging.
func NormalizeJobs(doc Mapping) Mapping {
	jobs, ok := doc[JobsKey].(map[string]any)
	if !ok {
		return doc
	}
	for _, name := range SortedKeys(jobs) {
		job, ok := jobs[name].(map[string]any)
		if !ok {
			continue
		}
		normalizeDependencies(job)
		normalizeCustomDirectives(job)
		normalizeFiles(job)
	}
	return doc
}

func normalizeDependencies(job Mapping) {
	deps, ok := job[DependenciesKey].(string)
	if !ok {
		return
	}
	out := Mapping{}
	for _, token := range strings.Split(deps, " ") {
		if token == "" {
			continue
		}
		// Dependency names become mapping keys and follow the key invariant.
		out[strings.ToUpper(token)] = Mapping{}
	}
	job[DependenciesKey] = out
}

func normalizeCustomDirectives(job Mapping) {
	v, ok := job[CustomDirectivesKey]
	if !ok || v == nil {
		return
	}
	if _, isString := v.(string); isString {
		return
	}
	job[CustomDirectivesKey] = directiveText(v)
}

// directiveText renders a structured directive list the way it reads in a
// YAML flow sequence, e.g. ['#SBATCH --x', '#SBATCH --y'].
func directiveText(v any) string {
	seq, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(seq))
	for i, item := range seq {
		parts[i] = fmt.Sprintf("'%s'", String(item))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func normalizeFiles(job Mapping) {
	raw, ok := job[FileKey]
	if !ok || raw == nil {
		return
	}
	files := SplitFileList(String(raw))
	job[FileKey] = files[0]
	additional := make([]any, 0, len(files)-1)
	for _, f := range files[1:] {
		additional = append(additional, f)
	}
	job[AdditionalFilesKey] = additional
}

// SplitFileList splits on commas when any are present, otherwise on spaces,
// otherwise returns the value as a single entry. Surrounding blanks are
// trimmed from every entry. The result always has at least one element.
func SplitFileList(files string) []string {
	var parts []string
	switch {
	case strings.Contains(files, ","):
		parts = strings.Split(files, ",")
	case strings.Contains(strings.TrimSpace(files), " "):
		parts = strings.Split(strings.TrimSpace(files), " ")
	default:
		return []string{strings.TrimSpace(files)}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}
