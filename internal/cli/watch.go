package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvp-joe/expconf/internal/daemon"
	"github.com/mvp-joe/expconf/internal/logging"
	"github.com/mvp-joe/expconf/internal/parser"
	"github.com/mvp-joe/expconf/internal/watcher"
	"github.com/spf13/cobra"
)

var watchDebounceFlag time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload the configuration whenever its documents change",
	Long: `Watch loads the configuration, then watches the conf directory and reloads
after each burst of changes to .yml/.yaml files.

Reloads only do work when a primary document's modification time moved.
Edits to custom documents alone do not trigger a reload; they are picked up
with the next primary change. Failed reloads are reported and the last good
configuration stays in effect. Only one watcher runs per experiment.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounceFlag, "debounce", watcher.DefaultDebounce, "quiet period before reloading")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	layout := e.Layout()

	lockDir, err := daemon.DefaultLockDir()
	if err != nil {
		return err
	}
	singleton := daemon.NewSingleton("watch-"+layout.ExpID, lockDir)
	won, err := singleton.Acquire()
	if err != nil {
		return err
	}
	if !won {
		fmt.Fprintf(cmd.OutOrStdout(), "A watcher is already running for %s\n", layout.ExpID)
		return nil
	}
	defer singleton.Release()

	files, err := watcher.NewFileWatcher([]string{layout.ConfDir}, parser.Extensions,
		watcher.WithDebounce(watchDebounceFlag),
		watcher.WithLogger(logging.Logger))
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", layout.ConfDir, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", layout.ConfDir)

	reloader := watcher.NewAutoReloader(files, e, logging.Logger, func(changed []string, err error) {
		stamp := time.Now().Format(time.TimeOnly)
		if err != nil {
			fmt.Fprintf(out, "%s ✗ reload failed: %v\n", stamp, err)
			return
		}
		fmt.Fprintf(out, "%s ✓ %d change(s) handled\n", stamp, len(changed))
	})

	if err := reloader.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
