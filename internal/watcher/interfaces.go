package watcher

import "context"

// FileWatcher monitors configuration directories and reports debounced
// batches of changed files.
type FileWatcher interface {
	// Start begins watching, calling callback with each debounced batch.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error
}

// Reloader is what a change batch is forwarded to. *engine.Engine satisfies it.
type Reloader interface {
	Reload(firstLoad bool) error
}
