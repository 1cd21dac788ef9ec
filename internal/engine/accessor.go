package engine

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/expconf/internal/tree"
	"github.com/spf13/cast"
)

// GetSection returns the value at path in the published tree.
//
// Segments are upper-cased before lookup, matching the unified tree where
// every key is upper-case. A missing or empty value yields def, or a KindMustExist error
// naming the dotted path when mustExist is set. Returned mappings and
// sequences are copies.
func (e *Engine) GetSection(path []string, def any, mustExist bool) (any, error) {
	segments := make([]string, len(path))
	for i, seg := range path {
		segments[i] = strings.ToUpper(seg)
	}
	key := tree.JoinPath(segments)

	e.mu.RLock()
	value, found := e.lookup(key, segments)
	e.mu.RUnlock()

	if !found || tree.IsEmpty(value) {
		if mustExist {
			return def, mustExistError(key)
		}
		return def, nil
	}
	return tree.Clone(value), nil
}

// lookup must be called with e.mu held.
func (e *Engine) lookup(key string, segments []string) (any, bool) {
	if cached, ok := e.cache.Get(key); ok {
		return cached.value, cached.found
	}
	value, found := tree.Get(e.tree, segments)
	e.cache.Set(key, lookup{value: value, found: found})
	return value, found
}

// Get is GetSection over a dotted path without a default.
func (e *Engine) Get(path string) (any, bool) {
	v, _ := e.GetSection(tree.SplitPath(path), nil, false)
	return v, v != nil
}

// GetString returns the value at the dotted path rendered as text, or def.
func (e *Engine) GetString(path string, def string) string {
	v, _ := e.GetSection(tree.SplitPath(path), nil, false)
	if v == nil {
		return def
	}
	return tree.String(v)
}

// GetInt returns the value at the dotted path as an int, or def when it is
// missing or empty.
func (e *Engine) GetInt(path string, def int) (int, error) {
	v, _ := e.GetSection(tree.SplitPath(path), nil, false)
	if v == nil {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", strings.ToUpper(path), err)
	}
	return n, nil
}

// GetBool returns the value at the dotted path as a bool, or def when it is
// missing or empty.
func (e *Engine) GetBool(path string, def bool) (bool, error) {
	v, _ := e.GetSection(tree.SplitPath(path), nil, false)
	if v == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", strings.ToUpper(path), err)
	}
	return b, nil
}

// GetStrings returns the value at the dotted path as a list of strings. A
// sequence yields one entry per item and a string is split on whitespace.
func (e *Engine) GetStrings(path string, def []string) ([]string, error) {
	v, _ := e.GetSection(tree.SplitPath(path), nil, false)
	if v == nil {
		return def, nil
	}
	if seq, ok := v.([]any); ok {
		out := make([]string, len(seq))
		for i, item := range seq {
			out[i] = tree.String(item)
		}
		return out, nil
	}
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", strings.ToUpper(path), err)
	}
	return s, nil
}
