// Package parser reads configuration documents from disk.
//
// The engine only needs a document as a nested mapping; the file syntax is
// this package's concern. YAML is the only format in use.
package parser

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parser loads one document.
type Parser interface {
	// Load returns the parsed document at path, or nil when the file is
	// empty. Read failures wrap the underlying *fs.PathError so callers can
	// tell a missing file from a syntax problem.
	Load(path string) (any, error)
}

// Func adapts a function to the Parser interface.
type Func func(path string) (any, error)

// Load calls f(path).
func (f Func) Load(path string) (any, error) {
	return f(path)
}

// SyntaxError reports a document that could be read but not decoded.
type SyntaxError struct {
	Path string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Extensions lists the file extensions New can read.
var Extensions = []string{".yml", ".yaml"}

// New returns the default parser.
func New() Parser {
	return yamlParser{}
}

type yamlParser struct{}

func (yamlParser) Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SyntaxError{Path: path, Err: err}
	}
	return doc, nil
}
