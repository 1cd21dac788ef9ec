package engine

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/mvp-joe/expconf/internal/parser"
	"github.com/mvp-joe/expconf/internal/tree"
)

// Role identifies what a document contributes. Primary documents merge in
// Role order, custom documents after them.
type Role int

const (
	RoleBase Role = iota
	RoleExperiment
	RoleJobs
	RolePlatforms
	RoleProject
	RoleCustom
)

func (r Role) String() string {
	switch r {
	case RoleBase:
		return "base"
	case RoleExperiment:
		return "experiment"
	case RoleJobs:
		return "jobs"
	case RolePlatforms:
		return "platforms"
	case RoleProject:
		return "project"
	case RoleCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// DocumentInfo describes a source document as of the last successful reload.
type DocumentInfo struct {
	Path    string
	Role    Role
	ModTime time.Time // zero when the file did not exist
	Exists  bool
}

// document is a source document and its last normalized contents.
type document struct {
	path    string
	role    Role
	modTime time.Time
	exists  bool
	loaded  bool
	data    tree.Mapping
}

func (d *document) info() DocumentInfo {
	return DocumentInfo{Path: d.path, Role: d.role, ModTime: d.modTime, Exists: d.exists}
}

// optional reports whether a missing file is an empty contribution rather
// than an error.
func (d *document) optional() bool {
	return d.role == RoleProject || d.role == RoleCustom
}

// observation is the on-disk state of a document at the start of a reload.
type observation struct {
	modTime time.Time
	exists  bool
	changed bool
}

// observe stats d and compares the result with what was last loaded.
// Modification times within tolerance of the recorded one are unchanged.
func (d *document) observe(tolerance time.Duration) (observation, error) {
	info, err := os.Stat(d.path)
	if err != nil {
		if d.optional() && errors.Is(err, fs.ErrNotExist) {
			return observation{changed: !d.loaded || d.exists}, nil
		}
		return observation{}, ioError(d.path, err)
	}

	obs := observation{modTime: info.ModTime(), exists: true}
	switch {
	case !d.loaded, !d.exists:
		obs.changed = true
	default:
		delta := obs.modTime.Sub(d.modTime)
		if delta < 0 {
			delta = -delta
		}
		obs.changed = delta > tolerance
	}
	return obs, nil
}

func (d *document) commit(obs observation, data tree.Mapping) {
	d.modTime = obs.modTime
	d.exists = obs.exists
	d.loaded = true
	d.data = data
}

// readDocument parses path and normalizes it. Optional documents that do
// not exist read as an empty mapping.
func readDocument(p parser.Parser, path string, optional, strict bool) (tree.Mapping, error) {
	raw, err := p.Load(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return tree.Mapping{}, nil
		}
		return nil, classifyReadError(path, err)
	}

	var m tree.Mapping
	if strict {
		m, err = tree.NormalizeKeysStrict(raw)
		if err != nil {
			return nil, criticalError(path, err)
		}
	} else {
		m = tree.NormalizeKeys(raw)
	}
	return tree.NormalizeJobs(m), nil
}

// classifyReadError separates unreadable files from undecodable ones.
func classifyReadError(path string, err error) error {
	var syntaxErr *parser.SyntaxError
	if errors.As(err, &syntaxErr) {
		return criticalError(path, err)
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return ioError(path, err)
	}
	return criticalError(path, err)
}
