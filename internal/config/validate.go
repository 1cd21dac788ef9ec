package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptyRoot indicates a missing experiments root directory
	ErrEmptyRoot = errors.New("empty experiments root")

	// ErrInvalidExpID indicates a missing or malformed experiment identifier
	ErrInvalidExpID = errors.New("invalid experiment id")

	// ErrInvalidPattern indicates a custom document pattern that does not compile
	ErrInvalidPattern = errors.New("invalid custom pattern")

	// ErrInvalidTolerance indicates a negative modification-time tolerance
	ErrInvalidTolerance = errors.New("invalid mtime tolerance")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Validate checks that the settings are valid and complete.
func Validate(s *Settings) error {
	var errs []error

	if strings.TrimSpace(s.Root) == "" {
		errs = append(errs, fmt.Errorf("%w: root is required", ErrEmptyRoot))
	}

	if err := validateExpID(s.ExpID); err != nil {
		errs = append(errs, err)
	}

	for _, pattern := range s.CustomPatterns {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if s.MtimeTolerance < 0 {
		errs = append(errs, fmt.Errorf("%w: must not be negative, got %s", ErrInvalidTolerance, s.MtimeTolerance))
	}

	switch strings.ToLower(s.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, s.Log.Level))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateExpID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: expid is required", ErrInvalidExpID)
	}
	// The id names a directory and is embedded in file names.
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || filepath.Base(id) != id {
		return fmt.Errorf("%w: '%s' is not a plain directory name", ErrInvalidExpID, id)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
