// Package watch keeps a schema file and an editor controller in sync.
//
// Writes to the file by other programs are applied to the controller as
// external source changes. Source text generated by diagram edits is
// written back to the file, and the file event caused by that write is
// recognised by the controller as self-caused.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/editor"
)

// DefaultDebounce is the quiet period after the last file event before
// the file is read.
const DefaultDebounce = 50 * time.Millisecond

// Watcher binds one file to one controller.
type Watcher struct {
	path     string
	ctrl     *editor.Controller
	logger   *zap.Logger
	debounce time.Duration

	fs          *fsnotify.Watcher
	unsubscribe func()
	closeOnce   sync.Once

	mu      sync.Mutex
	written uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before a changed file is read.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New starts watching path for ctrl. File events are queued until Run is
// called. The directory of path is watched so that editors replacing the
// file by rename are noticed.
func New(path string, ctrl *editor.Controller, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("schemaflow: watch %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		ctrl:     ctrl,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("schemaflow: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("schemaflow: watch %s: %w", path, err)
	}
	w.fs = fw
	w.unsubscribe = ctrl.Subscribe(w.writeBack)
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string { return w.path }

// Run applies file changes until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	w.logger.Info("watching schema file", zap.String("path", w.path))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watch error", zap.Error(err))
		case <-fire:
			fire = nil
			w.sync()
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.unsubscribe()
		err = w.fs.Close()
	})
	return err
}

// sync applies the file content unless the controller already holds it.
func (w *Watcher) sync() {
	b, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("schema file not read", zap.String("path", w.path), zap.Error(err))
		return
	}
	src := string(b)
	if snap := w.ctrl.Snapshot(); snap.Source == src && snap.State == editor.Idle {
		return
	}
	switch err := w.ctrl.ApplySource(src); {
	case errors.Is(err, schemaflow.ErrSelfCaused):
		w.logger.Debug("own write ignored", zap.String("path", w.path))
	case err != nil:
		w.logger.Warn("external change not applied", zap.String("path", w.path), zap.Error(err))
	default:
		w.logger.Info("external change applied", zap.String("path", w.path))
	}
}

// writeBack writes source generated by diagram edits to the file.
func (w *Watcher) writeBack(snap editor.Snapshot) {
	if snap.State != editor.ApplyingFromGraph {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if snap.Version <= w.written {
		return
	}
	if err := writeFile(w.path, snap.Source); err != nil {
		w.logger.Error("schema file not written", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.written = snap.Version
	w.logger.Debug("schema file written", zap.String("path", w.path), zap.Uint64("version", snap.Version))
}

// writeFile replaces path through a temporary file so readers never see
// a partial write.
func writeFile(path, content string) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if fi, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmp, fi.Mode().Perm())
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
