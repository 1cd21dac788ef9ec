package watcher

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// retryable is implemented by errors that may clear up on their own, such
// as a document caught halfway through being written.
type retryable interface {
	Retryable() bool
}

// AutoReloader forwards each batch reported by a FileWatcher to a Reloader.
// The target decides by modification time whether the batch needs work.
type AutoReloader struct {
	files    FileWatcher
	target   Reloader
	log      zerolog.Logger
	onReload func(files []string, err error)
}

// NewAutoReloader creates an AutoReloader. onReload, if not nil, is called
// after every reload attempt.
func NewAutoReloader(files FileWatcher, target Reloader, log zerolog.Logger, onReload func(files []string, err error)) *AutoReloader {
	return &AutoReloader{
		files:    files,
		target:   target,
		log:      log,
		onReload: onReload,
	}
}

// Run watches until ctx is cancelled, then stops the file watcher.
func (r *AutoReloader) Run(ctx context.Context) error {
	if err := r.files.Start(ctx, r.handleFileChange); err != nil {
		return err
	}

	<-ctx.Done()

	if err := r.files.Stop(); err != nil {
		r.log.Warn().Err(err).Msg("file watcher stop failed")
	}
	return ctx.Err()
}

func (r *AutoReloader) handleFileChange(files []string) {
	err := r.target.Reload(false)

	switch {
	case err == nil:
		r.log.Debug().Strs("files", files).Msg("change batch handled")
	case isRetryable(err):
		r.log.Warn().Err(err).Strs("files", files).Msg("reload failed, waiting for the next change")
	default:
		r.log.Error().Err(err).Strs("files", files).Msg("reload failed")
	}

	if r.onReload != nil {
		r.onReload(files, err)
	}
}

func isRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r) && r.Retryable()
}
