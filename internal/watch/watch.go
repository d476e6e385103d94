// Package watch drives incremental rule-key recomputation as files
// change under a workspace root. It exists so a long-running `rkb
// watch` process can keep a *rulekey.CachingOracle's cached digests
// honest without re-hashing the entire source set after every
// keystroke: only the paths fsnotify reports as touched are invalidated.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"rulekeybuilder/internal/rulekey"
	"rulekeybuilder/pkg/logger"
)

// Oracle is the subset of *rulekey.CachingOracle's API the watcher needs.
type Oracle interface {
	Invalidate(absolutePath string)
}

var _ Oracle = (*rulekey.CachingOracle)(nil)

// Watcher recursively watches a workspace root and invalidates an
// Oracle's cached digests as files change, then calls OnChange so the
// caller can recompute whatever rule keys depend on the touched path.
type Watcher struct {
	root    string
	oracle  Oracle
	fsw     *fsnotify.Watcher
	// OnChange is invoked (from Run's goroutine) once per handled
	// filesystem event, with a one-element slice holding the absolute
	// path just invalidated. It is never invoked concurrently with itself.
	OnChange func(changed []string)
}

// New creates a Watcher rooted at root, adding a watch on every
// directory beneath it (fsnotify does not recurse on its own).
func New(root string, oracle Oracle) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	w := &Watcher{root: root, oracle: oracle, fsw: fsw}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks, invalidating the oracle and invoking OnChange as events
// arrive, until ctx is canceled or the watcher errors out.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("watch: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		abs = event.Name
	}

	w.oracle.Invalidate(abs)
	logger.Debugf("watch: invalidated %s (%s)", abs, event.Op)

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			if err := w.addRecursive(abs); err != nil {
				logger.Errorf("watch: failed to watch new directory %s: %v", abs, err)
			}
		}
	}

	if w.OnChange != nil {
		w.OnChange([]string{abs})
	}
}
