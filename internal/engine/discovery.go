package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/expconf/internal/tree"
)

// CustomConfigKey is the DEFAULT entry listing extra custom documents or
// directories, comma- or space-separated, or as a sequence.
var CustomConfigKey = []string{"DEFAULT", "CUSTOM_CONFIG"}

// RootDirKey names the experiment directory in references. It resolves
// without being defined by any document.
const RootDirKey = "ROOTDIR"

const rootDirToken = "%" + RootDirKey + "%"

// compiledPattern holds both the pattern string and compiled glob. rootGlob
// is set for "**/" patterns and matches files directly under the directory.
type compiledPattern struct {
	pattern  string
	glob     glob.Glob
	rootGlob glob.Glob
}

// customDiscovery finds custom documents under directories.
type customDiscovery struct {
	patterns []compiledPattern
}

func newCustomDiscovery(patterns []string) (*customDiscovery, error) {
	cd := &customDiscovery{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if trimmed, ok := strings.CutPrefix(pattern, "**/"); ok {
			cp.rootGlob, err = glob.Compile(trimmed, '/')
			if err != nil {
				return nil, err
			}
		}
		cd.patterns = append(cd.patterns, cp)
	}
	return cd, nil
}

// scan returns the files under dir matching any pattern, in lexical walk
// order. A missing directory holds no documents.
func (cd *customDiscovery) scan(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if cd.matches(filepath.ToSlash(relPath)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// matches checks if a relative path matches any pattern.
func (cd *customDiscovery) matches(relPath string) bool {
	for _, cp := range cd.patterns {
		if cp.glob.Match(relPath) {
			return true
		}
	}

	// Files directly under the directory also match "**/" patterns.
	if !strings.Contains(relPath, "/") {
		for _, cp := range cd.patterns {
			if cp.rootGlob != nil && cp.rootGlob.Match(relPath) {
				return true
			}
		}
	}
	return false
}

// customConfigEntries reads CUSTOM_CONFIG from m with %ROOTDIR% replaced by
// expDir. Relative entries are taken relative to expDir.
func customConfigEntries(m tree.Mapping, expDir string) []string {
	value, ok := tree.Get(m, CustomConfigKey)
	if !ok {
		return nil
	}

	var raw []string
	switch v := value.(type) {
	case string:
		raw = tree.SplitFileList(v)
	case []any:
		for _, item := range v {
			raw = append(raw, tree.SplitFileList(tree.String(item))...)
		}
	default:
		return nil
	}

	var entries []string
	for _, entry := range raw {
		entry = strings.TrimSpace(strings.ReplaceAll(entry, rootDirToken, expDir))
		if entry == "" {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(expDir, entry)
		}
		entries = append(entries, filepath.Clean(entry))
	}
	return entries
}

// identitySet tracks files by file-system identity so one file reached
// through a symlink or a different spelling is seen once.
type identitySet struct {
	seen []os.FileInfo
}

// add records path and reports whether it was new. Paths that cannot be
// stat'ed are not recorded.
func (s *identitySet) add(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	for _, other := range s.seen {
		if os.SameFile(info, other) {
			return false
		}
	}
	s.seen = append(s.seen, info)
	return true
}

// seedRootDir makes ROOTDIR resolvable while references are substituted. It
// reports whether the key was added, in which case the caller removes it
// again before publishing.
func seedRootDir(m tree.Mapping, expDir string) bool {
	if _, ok := m[RootDirKey]; ok {
		return false
	}
	m[RootDirKey] = expDir
	return true
}
