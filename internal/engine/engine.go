// Package engine owns the unified configuration tree of one experiment.
//
// An Engine reads the primary documents and any custom override documents,
// normalizes and merges them, unrolls FOR templates and resolves %NAME%
// references. Reload only reparses when a primary document changed on disk,
// and only publishes a tree once every step has succeeded: readers keep
// seeing the previous tree after a failed reload.
package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"
	"github.com/mvp-joe/expconf/internal/config"
	"github.com/mvp-joe/expconf/internal/logging"
	"github.com/mvp-joe/expconf/internal/loops"
	"github.com/mvp-joe/expconf/internal/parser"
	"github.com/mvp-joe/expconf/internal/placeholder"
	"github.com/mvp-joe/expconf/internal/tree"
	"github.com/rs/zerolog"
)

const lookupCacheSize = 4096

// Engine coordinates reloads and serves lookups. It is safe for concurrent
// use; reloads are serialized and never visible half-done.
type Engine struct {
	mu sync.RWMutex

	layout    config.Layout
	parser    parser.Parser
	log       zerolog.Logger
	session   string
	strict    bool
	tolerance time.Duration
	discovery *customDiscovery

	primaries         []*document
	customs           []*document
	customsDiscovered bool
	loaded            bool
	tree              tree.Mapping
	lastResult        placeholder.Result

	cache otter.Cache[string, lookup]
}

type lookup struct {
	value any
	found bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithParser replaces the document parser.
func WithParser(p parser.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithLogger replaces the logger. Session and experiment fields are added
// to it.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an engine for the experiment described by settings. Nothing is
// read until the first Reload.
func New(settings *config.Settings, opts ...Option) (*Engine, error) {
	discovery, err := newCustomDiscovery(settings.CustomPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid custom pattern: %w", err)
	}

	cache, err := otter.MustBuilder[string, lookup](lookupCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}

	e := &Engine{
		layout:    settings.Layout(),
		parser:    parser.New(),
		log:       logging.Logger,
		session:   uuid.NewString(),
		strict:    settings.StrictKeys,
		tolerance: settings.MtimeTolerance,
		discovery: discovery,
		tree:      tree.Mapping{},
		cache:     cache,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().
		Str("session", e.session).
		Str("expid", e.layout.ExpID).
		Logger()

	e.primaries = []*document{
		{path: e.layout.Base(), role: RoleBase},
		{path: e.layout.Experiment(), role: RoleExperiment},
		{path: e.layout.Jobs(), role: RoleJobs},
		{path: e.layout.Platforms(), role: RolePlatforms},
		{path: e.layout.Project(), role: RoleProject},
	}
	return e, nil
}

// Session identifies this engine in log output.
func (e *Engine) Session() string {
	return e.session
}

// Layout returns the experiment layout the engine reads from.
func (e *Engine) Layout() config.Layout {
	return e.layout
}

// Close releases the lookup cache.
func (e *Engine) Close() {
	e.cache.Close()
}

// Reload brings the unified tree up to date with the documents on disk.
//
// Unless firstLoad is set or nothing was loaded yet, Reload returns without
// work when no primary document changed. Custom documents are discovered on
// the first load only and reparsed on every reload that does work.
//
// Errors are *Error values: KindIO when a document cannot be read and
// KindCritical when it cannot be merged. The published tree is unchanged on
// error.
func (e *Engine) Reload(firstLoad bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	full := firstLoad || !e.loaded

	observations := make([]observation, len(e.primaries))
	anyChanged := false
	for i, doc := range e.primaries {
		obs, err := doc.observe(e.tolerance)
		if err != nil {
			return err
		}
		observations[i] = obs
		anyChanged = anyChanged || obs.changed
	}
	if !full && !anyChanged {
		e.log.Debug().Msg("configuration unchanged")
		return nil
	}

	// Everything below works on scratch values until publish.
	contents := make([]tree.Mapping, len(e.primaries))
	for i, doc := range e.primaries {
		switch {
		case !observations[i].exists:
			e.log.Debug().Str("path", doc.path).Stringer("role", doc.role).Msg("document absent")
			contents[i] = tree.Mapping{}
		case full || observations[i].changed:
			m, err := readDocument(e.parser, doc.path, doc.optional(), e.strict)
			if err != nil {
				return err
			}
			e.log.Debug().Str("path", doc.path).Stringer("role", doc.role).Int("keys", len(m)).Msg("document parsed")
			contents[i] = m
		default:
			contents[i] = doc.data
		}
	}

	unified := tree.Mapping{}
	for i, doc := range e.primaries {
		if _, err := tree.Merge(unified, contents[i]); err != nil {
			return criticalError(doc.path, err)
		}
	}
	discovered, err := loops.Run(unified)
	if err != nil {
		return criticalError("", err)
	}
	pending := discovered.Placeholders
	e.log.Debug().Int("templates", len(discovered.Loops)).Msg("primary documents merged")

	customs := e.customs
	if firstLoad || !e.customsDiscovered {
		paths, err := e.discoverCustoms(unified)
		if err != nil {
			return err
		}
		customs = make([]*document, len(paths))
		for i, path := range paths {
			customs[i] = &document{path: path, role: RoleCustom}
		}
	}

	customObservations := make([]observation, len(customs))
	customContents := make([]tree.Mapping, len(customs))
	for i, doc := range customs {
		obs, err := doc.observe(e.tolerance)
		if err != nil {
			return err
		}
		customObservations[i] = obs
		if !obs.exists {
			e.log.Warn().Str("path", doc.path).Msg("custom document disappeared")
			customContents[i] = tree.Mapping{}
			continue
		}
		m, err := readDocument(e.parser, doc.path, true, e.strict)
		if err != nil {
			return err
		}
		customContents[i] = m
	}

	if len(customs) > 0 {
		for i, doc := range customs {
			if _, err := tree.Merge(unified, customContents[i]); err != nil {
				return criticalError(doc.path, err)
			}
		}
		discovered, err := loops.Run(unified)
		if err != nil {
			return criticalError("", err)
		}
		pending = append(pending, discovered.Placeholders...)
		e.log.Debug().Int("documents", len(customs)).Int("templates", len(discovered.Loops)).Msg("custom documents merged")
	}

	seeded := seedRootDir(unified, e.layout.ExpDir)
	pending = append(pending, placeholder.Collect(unified)...)
	result := placeholder.Resolve(unified, pending)
	if seeded {
		delete(unified, RootDirKey)
	}
	if len(result.Unresolved) > 0 {
		e.log.Warn().
			Int("unresolved", len(result.Unresolved)).
			Int("passes", result.Passes).
			Msg("placeholders left unresolved")
	}

	// Publish.
	for i, doc := range e.primaries {
		doc.commit(observations[i], contents[i])
	}
	for i, doc := range customs {
		doc.commit(customObservations[i], customContents[i])
	}
	e.customs = customs
	e.customsDiscovered = true
	e.tree = unified
	e.lastResult = result
	e.loaded = true
	e.cache.Clear()

	e.log.Info().
		Bool("first_load", firstLoad).
		Int("custom_documents", len(customs)).
		Stringer("mode", result.Mode).
		Int("passes", result.Passes).
		Dur("took", time.Since(start)).
		Msg("configuration reloaded")
	return nil
}

// discoverCustoms lists custom documents: files in the custom directory,
// then each CUSTOM_CONFIG entry in order (directories are scanned). Primary
// documents and files seen before are skipped by file identity.
func (e *Engine) discoverCustoms(merged tree.Mapping) ([]string, error) {
	seen := &identitySet{}
	for _, doc := range e.primaries {
		seen.add(doc.path)
	}

	candidates, err := e.discovery.scan(e.layout.CustomDir)
	if err != nil {
		return nil, ioError(e.layout.CustomDir, err)
	}

	for _, entry := range customConfigEntries(merged, e.layout.ExpDir) {
		files, err := e.expandEntry(entry)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				e.log.Warn().Str("path", entry).Msg("custom configuration path not found")
				continue
			}
			return nil, ioError(entry, err)
		}
		candidates = append(candidates, files...)
	}

	var paths []string
	for _, path := range candidates {
		if seen.add(path) {
			paths = append(paths, path)
		}
	}
	e.log.Debug().Int("documents", len(paths)).Msg("custom documents discovered")
	return paths, nil
}

func (e *Engine) expandEntry(entry string) ([]string, error) {
	info, err := os.Stat(entry)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return e.discovery.scan(entry)
	}
	return []string{entry}, nil
}

// Snapshot returns a deep copy of the published tree.
func (e *Engine) Snapshot() tree.Mapping {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return tree.CloneMapping(e.tree)
}

// Documents lists the source documents in merge order as of the last
// successful reload.
func (e *Engine) Documents() []DocumentInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]DocumentInfo, 0, len(e.primaries)+len(e.customs))
	for _, doc := range e.primaries {
		infos = append(infos, doc.info())
	}
	for _, doc := range e.customs {
		infos = append(infos, doc.info())
	}
	return infos
}

// Loaded reports whether a reload has succeeded.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

// Unresolved returns the references left pending by the last reload.
func (e *Engine) Unresolved() []placeholder.Pending {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]placeholder.Pending, len(e.lastResult.Unresolved))
	copy(out, e.lastResult.Unresolved)
	return out
}
